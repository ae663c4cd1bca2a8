package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/ludus/internal/session"
)

// GamesHandler lists the playable games.
type GamesHandler struct {
	registry *session.Registry
	logger   *slog.Logger
}

func NewGamesHandler(registry *session.Registry, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		registry: registry,
		logger:   logger,
	}
}

func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.registry.List()); err != nil {
		h.logger.Error("Failed to encode game list", "error", err)
	}
}

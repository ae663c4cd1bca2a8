package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/ludus/internal/session"
	"github.com/jwebster45206/ludus/internal/storage"
	"github.com/jwebster45206/ludus/pkg/eventlog"
)

// SessionsHandler serves the session lifecycle on /v1/sessions and
// /v1/sessions/{id}, plus the stored event history on
// /v1/sessions/{id}/events. The live play channel is the websocket
// endpoint; this handler covers start, inspect, history and stop.
type SessionsHandler struct {
	manager *session.Manager
	store   storage.Storage
	logger  *slog.Logger
}

func NewSessionsHandler(manager *session.Manager, store storage.Storage, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		manager: manager,
		store:   store,
		logger:  logger,
	}
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, sub, hasID, err := sessionPath(r.URL.Path)
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	switch {
	case sub == "events" && r.Method == http.MethodGet:
		h.handleEvents(w, r, id)
	case sub != "":
		http.Error(w, "Not found", http.StatusNotFound)
	case r.Method == http.MethodPost && !hasID:
		h.handleStart(w, r)
	case r.Method == http.MethodGet && !hasID:
		h.handleList(w, r)
	case r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case r.Method == http.MethodDelete:
		h.handleStop(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func sessionPath(path string) (uuid.UUID, string, bool, error) {
	rest := strings.TrimPrefix(path, "/v1/sessions")
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return uuid.Nil, "", false, nil
	}
	idPart, sub, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", true, err
	}
	return id, sub, true, nil
}

func (h *SessionsHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req session.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.manager.Start(r.Context(), req)
	if err != nil {
		h.logger.Warn("Failed to start session", "error", err, "game_id", req.GameID)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(s.Summary()); err != nil {
		h.logger.Error("Failed to encode session summary", "error", err)
	}
}

func (h *SessionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries := h.manager.List()
	if summaries == nil {
		summaries = []session.Summary{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		h.logger.Error("Failed to encode session list", "error", err)
	}
}

func (h *SessionsHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.manager.Get(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Summary()); err != nil {
		h.logger.Error("Failed to encode session summary", "error", err)
	}
}

// handleEvents serves an observer's stored event stream. It reads the
// durable copy, so history stays available after the session is reaped.
func (h *SessionsHandler) handleEvents(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if h.store == nil {
		http.Error(w, "Session history is not available", http.StatusNotFound)
		return
	}

	observer := r.URL.Query().Get("observer")
	if observer == "" {
		observer = eventlog.ModeratorStream
	}

	entries, err := h.store.GetEvents(r.Context(), id, observer)
	if err != nil {
		h.logger.Error("Failed to load session events", "error", err, "session_id", id)
		http.Error(w, "Failed to load session events", http.StatusInternalServerError)
		return
	}
	if len(entries) == 0 {
		if _, err := h.manager.Get(id); err != nil {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		entries = []eventlog.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.logger.Error("Failed to encode session events", "error", err)
	}
}

func (h *SessionsHandler) handleStop(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.manager.Stop(id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to stop session", "error", err, "session_id", id)
		http.Error(w, "Failed to stop session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

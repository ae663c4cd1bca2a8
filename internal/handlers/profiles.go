package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/ludus/internal/storage"
)

// ProfilesHandler serves CRUD for reusable automated-player profiles on
// /v1/profiles and /v1/profiles/{id}.
type ProfilesHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewProfilesHandler(storage storage.Storage, logger *slog.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *ProfilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, hasID, err := profileID(r.URL.Path)
	if err != nil {
		http.Error(w, "Invalid profile ID", http.StatusBadRequest)
		return
	}

	switch {
	case r.Method == http.MethodGet && !hasID:
		h.handleList(w, r)
	case r.Method == http.MethodPost && !hasID:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case r.Method == http.MethodPut:
		h.handleUpdate(w, r, id)
	case r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func profileID(path string) (uuid.UUID, bool, error) {
	rest := strings.TrimPrefix(path, "/v1/profiles")
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, true, err
	}
	return id, true, nil
}

func (h *ProfilesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.storage.ListPlayerProfiles(r.Context())
	if err != nil {
		h.logger.Error("Failed to list player profiles", "error", err)
		http.Error(w, "Failed to list profiles", http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []storage.PlayerProfile{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(profiles); err != nil {
		h.logger.Error("Failed to encode profile list", "error", err)
	}
}

func (h *ProfilesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p storage.PlayerProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		http.Error(w, "Profile name is required", http.StatusBadRequest)
		return
	}
	p.ID = uuid.New()

	if err := h.storage.SavePlayerProfile(r.Context(), &p); err != nil {
		h.logger.Error("Failed to save player profile", "error", err)
		http.Error(w, "Failed to save profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.logger.Error("Failed to encode profile", "error", err)
	}
}

func (h *ProfilesHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	p, err := h.storage.GetPlayerProfile(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load player profile", "error", err, "uuid", id)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.logger.Error("Failed to encode profile", "error", err)
	}
}

func (h *ProfilesHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, err := h.storage.GetPlayerProfile(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load player profile", "error", err, "uuid", id)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}

	var p storage.PlayerProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		http.Error(w, "Profile name is required", http.StatusBadRequest)
		return
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt

	if err := h.storage.SavePlayerProfile(r.Context(), &p); err != nil {
		h.logger.Error("Failed to save player profile", "error", err, "uuid", id)
		http.Error(w, "Failed to save profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.logger.Error("Failed to encode profile", "error", err)
	}
}

func (h *ProfilesHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeletePlayerProfile(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete player profile", "error", err, "uuid", id)
		http.Error(w, "Failed to delete profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

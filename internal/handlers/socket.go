package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/ludus/internal/session"
)

// ClientMessage is one inbound line from a connected player.
type ClientMessage struct {
	Text string `json:"text"`
}

// SocketHandler serves the live play channel on
// /v1/sessions/{id}/ws?observer={name}. The socket carries session
// envelopes outbound and player input inbound. The observer may also be
// the moderator stream, which is read-only.
type SocketHandler struct {
	manager  *session.Manager
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewSocketHandler(manager *session.Manager, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{
		manager: manager,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// socketSessionID parses /v1/sessions/{id}/ws.
func socketSessionID(path string) (uuid.UUID, error) {
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	rest = strings.TrimSuffix(rest, "/ws")
	return uuid.Parse(strings.Trim(rest, "/"))
}

func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID, err := socketSessionID(r.URL.Path)
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	observer := r.URL.Query().Get("observer")
	if observer == "" {
		http.Error(w, "observer query parameter is required", http.StatusBadRequest)
		return
	}

	s, sub, err := h.manager.Subscribe(sessionID, observer)
	if err != nil {
		if err == session.ErrSessionNotFound {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Unknown observer", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err, "session_id", sessionID)
		s.Unsubscribe(sub.ID)
		return
	}

	log := h.logger.With("session_id", sessionID.String(), "observer", observer)
	log.Info("Websocket connected")

	defer func() {
		s.Unsubscribe(sub.ID)
		_ = conn.Close()
		log.Info("Websocket disconnected")
	}()

	// Reader: player input lines become Respond calls. The session's
	// inbound queue outlives this connection, so a reconnect resumes
	// exactly where the player left off.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Warn("Ignoring malformed client message", "error", err)
				continue
			}
			if err := h.manager.Respond(sessionID, observer, msg.Text); err != nil {
				log.Warn("Rejected player input", "error", err)
			}
		}
	}()

	// Writer: replay the observer's history, then stream live envelopes.
	for i := range sub.Replay {
		entry := sub.Replay[i]
		env := session.Envelope{Type: session.EnvelopeEvent, Event: &entry}
		if err := conn.WriteJSON(env); err != nil {
			return
		}
	}
	for {
		select {
		case env, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/ludus/internal/services"
	"github.com/jwebster45206/ludus/internal/session"
	"github.com/jwebster45206/ludus/internal/storage"
	"github.com/jwebster45206/ludus/pkg/eventlog"
	"github.com/jwebster45206/ludus/pkg/werewolf"
)

func newTestManager() (*session.Manager, *storage.MockStorage) {
	store := storage.NewMockStorage()
	registry := session.DefaultGames(werewolf.Config{})
	return session.NewManager(registry, services.NewMockLLM(), store, testLogger(), 4, time.Minute), store
}

func startTestSession(t *testing.T, handler *SessionsHandler) session.Summary {
	t.Helper()

	body, _ := json.Marshal(session.StartRequest{
		GameID: werewolf.GameID,
		Players: []session.PlayerSpec{
			{Name: "p1"}, {Name: "p2"}, {Name: "p3"}, {Name: "p4"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var summary session.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	return summary
}

func TestSessionsHandler_StartInspectStop(t *testing.T) {
	manager, store := newTestManager()
	handler := NewSessionsHandler(manager, store, testLogger())

	summary := startTestSession(t, handler)
	assert.Equal(t, werewolf.GameID, summary.GameID)
	assert.Len(t, summary.Players, 4)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+summary.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var loaded session.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loaded))
	assert.Equal(t, summary.ID, loaded.ID)

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+summary.ID.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	s, err := manager.Get(summary.ID)
	require.NoError(t, err)
	assert.Contains(t, []session.Status{session.StatusStopped, session.StatusFinished}, s.Status())
}

func TestSessionsHandler_List(t *testing.T) {
	manager, store := newTestManager()
	handler := NewSessionsHandler(manager, store, testLogger())

	summary := startTestSession(t, handler)
	defer func() { _ = manager.Stop(summary.ID) }()

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var list []session.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, summary.ID, list[0].ID)
}

func TestSessionsHandler_EventHistory(t *testing.T) {
	manager, store := newTestManager()
	handler := NewSessionsHandler(manager, store, testLogger())

	summary := startTestSession(t, handler)
	defer func() { _ = manager.Stop(summary.ID) }()

	// Setup announcements were written through to storage, so the
	// history endpoint can serve them back per observer.
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+summary.ID.String()+"/events?observer=p1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var entries []eventlog.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.NotEmpty(t, entries)

	var messages []string
	for _, e := range entries {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, strings.Join(messages, "\n"), "Your role is:")

	// Unknown sessions have no history.
	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.NewString()+"/events", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionsHandler_StartRejectsBadRequests(t *testing.T) {
	manager, store := newTestManager()
	handler := NewSessionsHandler(manager, store, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`not json`)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body, _ := json.Marshal(session.StartRequest{GameID: "unknown", Players: []session.PlayerSpec{{Name: "a"}}})
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionsHandler_NotFound(t *testing.T) {
	manager, store := newTestManager()
	handler := NewSessionsHandler(manager, store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+uuid.NewString(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionsHandler_InvalidID(t *testing.T) {
	manager, store := newTestManager()
	handler := NewSessionsHandler(manager, store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGamesHandler_List(t *testing.T) {
	registry := session.DefaultGames(werewolf.Config{})
	handler := NewGamesHandler(registry, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var games []session.GameInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &games))
	require.Len(t, games, 1)
	assert.Equal(t, werewolf.GameID, games[0].ID)
	assert.Equal(t, 4, games[0].MinPlayers)
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/ludus/internal/session"
	"github.com/jwebster45206/ludus/pkg/eventlog"
)

func dialSocket(t *testing.T, server *httptest.Server, path string) (*websocket.Conn, *http.Response) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, resp
	}
	return conn, resp
}

func TestSocketHandler_ModeratorStream(t *testing.T) {
	manager, store := newTestManager()
	sessionsHandler := NewSessionsHandler(manager, store, testLogger())
	summary := startTestSession(t, sessionsHandler)
	defer func() { _ = manager.Stop(summary.ID) }()

	server := httptest.NewServer(NewSocketHandler(manager, testLogger()))
	defer server.Close()

	conn, _ := dialSocket(t, server,
		"/v1/sessions/"+summary.ID.String()+"/ws?observer="+eventlog.ModeratorStream)
	require.NotNil(t, conn, "moderator connection must upgrade")
	defer func() { _ = conn.Close() }()

	// The replay carries the setup announcements, role reveals included.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var sawPrivate bool
	for i := 0; i < 10; i++ {
		var env session.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == session.EnvelopeEvent && env.Event != nil && !env.Event.Public() {
			sawPrivate = true
			break
		}
	}
	assert.True(t, sawPrivate, "the moderator stream includes restricted entries")
}

func TestSocketHandler_PlayerSeesOnlyOwnStream(t *testing.T) {
	manager, store := newTestManager()
	sessionsHandler := NewSessionsHandler(manager, store, testLogger())
	summary := startTestSession(t, sessionsHandler)
	defer func() { _ = manager.Stop(summary.ID) }()

	server := httptest.NewServer(NewSocketHandler(manager, testLogger()))
	defer server.Close()

	conn, _ := dialSocket(t, server, "/v1/sessions/"+summary.ID.String()+"/ws?observer=p1")
	require.NotNil(t, conn)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for i := 0; i < 10; i++ {
		var env session.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			break
		}
		if env.Type != session.EnvelopeEvent || env.Event == nil || env.Event.Public() {
			continue
		}
		// Restricted entries on p1's socket must be addressed to p1.
		assert.Contains(t, env.Event.VisibleTo, "p1")
	}
}

func TestSocketHandler_Rejections(t *testing.T) {
	manager, store := newTestManager()
	sessionsHandler := NewSessionsHandler(manager, store, testLogger())
	summary := startTestSession(t, sessionsHandler)
	defer func() { _ = manager.Stop(summary.ID) }()

	server := httptest.NewServer(NewSocketHandler(manager, testLogger()))
	defer server.Close()

	conn, resp := dialSocket(t, server, "/v1/sessions/"+summary.ID.String()+"/ws")
	require.Nil(t, conn, "missing observer is rejected")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, resp = dialSocket(t, server, "/v1/sessions/"+summary.ID.String()+"/ws?observer=stranger")
	require.Nil(t, conn, "unknown observer is rejected")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, resp = dialSocket(t, server, "/v1/sessions/not-a-uuid/ws?observer=p1")
	require.Nil(t, conn)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

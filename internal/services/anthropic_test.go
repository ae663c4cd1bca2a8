package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/ludus/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAnthropicSplitChatMessages(t *testing.T) {
	svc := NewAnthropicService("key", "model", testLogger())

	messages := []chat.Message{
		chat.System("You are a player."),
		chat.System("Game record so far."),
		chat.User("Choose a target."),
	}

	system, rest := svc.splitChatMessages(messages)
	assert.Equal(t, "You are a player.\n\nGame record so far.", system)
	require.Len(t, rest, 1)
	assert.Equal(t, chat.RoleUser, rest[0].Role)
}

func TestAnthropicGetChatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req AnthropicChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.NotEmpty(t, req.System, "system messages must be lifted into the system field")
		for _, msg := range req.Messages {
			assert.NotEqual(t, chat.RoleSystem, msg.Role)
		}

		resp := AnthropicChatResponse{
			Content: []AnthropicContentBlock{{Type: "text", Text: "Alice"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewAnthropicService("key", "claude-test", testLogger())
	svc.baseURL = server.URL

	resp, err := svc.GetChatResponse(context.Background(), []chat.Message{
		chat.System("persona"),
		chat.User("vote"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.Message)
}

func TestAnthropicGetChatResponse_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	svc := NewAnthropicService("key", "claude-test", testLogger())
	svc.baseURL = server.URL

	_, err := svc.GetChatResponse(context.Background(), []chat.Message{chat.User("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

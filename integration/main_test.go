//go:build integration
// +build integration

// End-to-end tests against a running API. Requires the server and its
// Redis and LLM backends to be up:
//
//	go test -tags integration ./integration/...
//
// API_BASE_URL overrides the default http://localhost:8080.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/ludus/internal/session"
	"github.com/jwebster45206/ludus/internal/storage"
	"github.com/jwebster45206/ludus/pkg/eventlog"
)

var apiBaseURL string

func TestMain(m *testing.M) {
	apiBaseURL = os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8080"
	}

	fmt.Printf("Running Ludus Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL)

	resp, err := http.Get(apiBaseURL + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "API is not reachable at %s: %v\n", apiBaseURL, err)
		os.Exit(1)
	}
	_ = resp.Body.Close()

	os.Exit(m.Run())
}

func postJSON(t *testing.T, path string, payload any, wantStatus int) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	resp, err := http.Post(apiBaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s returned %d, want %d: %s", path, resp.StatusCode, wantStatus, out.String())
	}
	return out.Bytes()
}

func TestHealth(t *testing.T) {
	resp, err := http.Get(apiBaseURL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestListGames(t *testing.T) {
	resp, err := http.Get(apiBaseURL + "/v1/games")
	if err != nil {
		t.Fatalf("Games request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var games []session.GameInfo
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		t.Fatalf("Failed to decode games: %v", err)
	}
	if len(games) == 0 {
		t.Fatal("Expected at least one registered game")
	}

	found := false
	for _, g := range games {
		if g.ID == "werewolf" {
			found = true
		}
	}
	if !found {
		t.Error("Expected werewolf to be registered")
	}
}

func TestProfileLifecycle(t *testing.T) {
	body := postJSON(t, "/v1/profiles", storage.PlayerProfile{
		Name:    "integration-bot",
		Persona: "Suspicious of everyone, votes early.",
	}, http.StatusCreated)

	var created storage.PlayerProfile
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("Expected server-assigned profile ID")
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/profiles/%s", apiBaseURL, created.ID))
	if err != nil {
		t.Fatalf("Get profile failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/profiles/%s", apiBaseURL, created.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Delete profile failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.StatusCode)
	}
}

// TestWerewolfSession starts an all-bot table, watches the moderator
// stream over the websocket, and stops the game. Bot turns run against
// the real LLM backend, so this only asserts the orchestration: setup
// announcements appear, restricted entries stay restricted, and the
// session reaches a terminal status after the stop.
func TestWerewolfSession(t *testing.T) {
	body := postJSON(t, "/v1/sessions", session.StartRequest{
		GameID: "werewolf",
		Players: []session.PlayerSpec{
			{Name: "it-p1"}, {Name: "it-p2"}, {Name: "it-p3"},
			{Name: "it-p4"}, {Name: "it-p5"}, {Name: "it-p6"},
		},
	}, http.StatusCreated)

	var summary session.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}

	defer func() {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", apiBaseURL, summary.ID), nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	wsURL := strings.Replace(apiBaseURL, "http", "ws", 1) +
		fmt.Sprintf("/v1/sessions/%s/ws?observer=%s", summary.ID, url.QueryEscape(eventlog.ModeratorStream))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to open moderator socket: %v", err)
	}
	defer func() { _ = conn.Close() }()

	sawRole := false
	sawRestricted := false
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) && !(sawRole && sawRestricted) {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var env session.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			break
		}
		if env.Type != session.EnvelopeEvent || env.Event == nil {
			continue
		}
		if strings.Contains(env.Event.Message, "Your role is:") {
			sawRole = true
		}
		if !env.Event.Public() {
			sawRestricted = true
		}
	}
	if !sawRole {
		t.Error("Moderator stream never showed a role assignment")
	}
	if !sawRestricted {
		t.Error("Moderator stream never showed a restricted entry")
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", apiBaseURL, summary.ID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Stop session failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204 stopping session, got %d", resp.StatusCode)
	}

	// The session stays queryable for the retention window.
	deadline = time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("%s/v1/sessions/%s", apiBaseURL, summary.ID))
		if err != nil {
			t.Fatalf("Get session failed: %v", err)
		}
		var got session.Summary
		err = json.NewDecoder(resp.Body).Decode(&got)
		_ = resp.Body.Close()
		if err != nil {
			t.Fatalf("Failed to decode session: %v", err)
		}
		if got.Status != session.StatusRunning {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Error("Session never reached a terminal status after stop")
}

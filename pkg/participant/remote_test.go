package participant

import (
	"context"
	"testing"
	"time"
)

type recordedTurn struct {
	identity  string
	kind      string
	prompt    string
	options   []string
	allowSkip bool
}

type fakeTransport struct {
	turns []recordedTurn
}

func (f *fakeTransport) RequestTurn(identity, kind, prompt string, options []string, allowSkip bool) {
	f.turns = append(f.turns, recordedTurn{identity, kind, prompt, options, allowSkip})
}

func TestRemoteChoose(t *testing.T) {
	transport := &fakeTransport{}
	inbound := make(chan string, 1)
	r := NewRemote("alice", inbound, transport)

	inbound <- "2"
	got, err := r.Choose(context.Background(), "Pick a target", []string{"Bob", "Carol"}, false)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if got != "Carol" {
		t.Errorf("expected Carol, got %q", got)
	}

	if len(transport.turns) != 1 {
		t.Fatalf("expected 1 turn request, got %d", len(transport.turns))
	}
	turn := transport.turns[0]
	if turn.identity != "alice" || turn.kind != TurnChoose || turn.prompt != "Pick a target" {
		t.Errorf("unexpected turn request %+v", turn)
	}
}

func TestRemoteChooseRepublishesOnUnmatched(t *testing.T) {
	transport := &fakeTransport{}
	inbound := make(chan string, 2)
	r := NewRemote("alice", inbound, transport)

	inbound <- "no idea"
	inbound <- "bob"
	got, err := r.Choose(context.Background(), "Pick", []string{"Bob", "Carol"}, false)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if got != "Bob" {
		t.Errorf("expected Bob, got %q", got)
	}
	if len(transport.turns) != 2 {
		t.Errorf("expected the request to be republished, got %d requests", len(transport.turns))
	}
}

func TestRemoteChooseSkip(t *testing.T) {
	transport := &fakeTransport{}
	inbound := make(chan string, 1)
	r := NewRemote("alice", inbound, transport)

	inbound <- "skip"
	got, err := r.Choose(context.Background(), "Pick", []string{"Bob"}, true)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if got != Skip {
		t.Errorf("expected skip, got %q", got)
	}
}

func TestRemoteSpeak(t *testing.T) {
	transport := &fakeTransport{}
	inbound := make(chan string, 1)
	r := NewRemote("alice", inbound, transport)

	inbound <- "I suspect Carol."
	got, err := r.Speak(context.Background(), "Your statement")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if got != "I suspect Carol." {
		t.Errorf("unexpected reply %q", got)
	}
	if transport.turns[0].kind != TurnSpeak {
		t.Errorf("expected a speak turn, got %q", transport.turns[0].kind)
	}
}

func TestRemoteCancelled(t *testing.T) {
	transport := &fakeTransport{}
	inbound := make(chan string)
	r := NewRemote("alice", inbound, transport)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Speak(ctx, "say")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if err != ErrCancelled {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Speak did not return after cancellation")
	}
}

func TestRemoteClosedQueue(t *testing.T) {
	transport := &fakeTransport{}
	inbound := make(chan string)
	close(inbound)
	r := NewRemote("alice", inbound, transport)

	_, err := r.Speak(context.Background(), "say")
	if err != ErrCancelled {
		t.Errorf("expected ErrCancelled on closed queue, got %v", err)
	}
}

func TestMatchOption(t *testing.T) {
	options := []string{"Bob", "Carol"}

	tests := []struct {
		name      string
		input     string
		allowSkip bool
		want      string
		ok        bool
	}{
		{name: "index", input: "1", want: "Bob", ok: true},
		{name: "index out of range", input: "3", ok: false},
		{name: "exact case-insensitive", input: "CAROL", want: "Carol", ok: true},
		{name: "unique substring", input: "I vote for bob today", want: "Bob", ok: true},
		{name: "ambiguous substring", input: "bob or carol", ok: false},
		{name: "skip allowed", input: "skip", allowSkip: true, want: Skip, ok: true},
		{name: "skip disallowed", input: "skip", ok: false},
		{name: "whitespace trimmed", input: "  2  ", want: "Carol", ok: true},
		{name: "no match", input: "mallory", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchOption(tt.input, options, tt.allowSkip)
			if ok != tt.ok {
				t.Fatalf("matchOption(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("matchOption(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

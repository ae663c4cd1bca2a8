package participant

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestConsoleChooseByIndex(t *testing.T) {
	in := strings.NewReader("2\n")
	var out bytes.Buffer
	c := NewConsole("alice", in, &out)

	got, err := c.Choose(context.Background(), "Pick a target", []string{"bob", "carol"}, false)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if got != "carol" {
		t.Errorf("expected carol, got %q", got)
	}
	if !strings.Contains(out.String(), "Pick a target") {
		t.Error("prompt was not written to the output")
	}
}

func TestConsoleChooseRepromptsOnInvalid(t *testing.T) {
	in := strings.NewReader("mallory\nbob\n")
	var out bytes.Buffer
	c := NewConsole("alice", in, &out)

	got, err := c.Choose(context.Background(), "Pick", []string{"bob", "carol"}, false)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if got != "bob" {
		t.Errorf("expected bob, got %q", got)
	}
	if !strings.Contains(out.String(), "Invalid choice") {
		t.Error("expected a re-prompt message")
	}
}

func TestConsoleChooseSkip(t *testing.T) {
	in := strings.NewReader("skip\n")
	c := NewConsole("alice", in, &bytes.Buffer{})

	got, err := c.Choose(context.Background(), "Pick", []string{"bob"}, true)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if got != Skip {
		t.Errorf("expected skip, got %q", got)
	}
}

func TestConsoleChooseSkipNotAllowed(t *testing.T) {
	in := strings.NewReader("skip\n1\n")
	var out bytes.Buffer
	c := NewConsole("alice", in, &out)

	got, err := c.Choose(context.Background(), "Pick", []string{"bob"}, false)
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if got != "bob" {
		t.Errorf("expected bob after re-prompt, got %q", got)
	}
}

func TestConsoleSpeak(t *testing.T) {
	in := strings.NewReader("I saw nothing last night.\n")
	c := NewConsole("alice", in, &bytes.Buffer{})

	got, err := c.Speak(context.Background(), "Your statement: ")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if got != "I saw nothing last night." {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestConsoleCancelled(t *testing.T) {
	// A reader that never produces a line keeps the call blocked until
	// the context is cancelled.
	blocked := &blockedReader{release: make(chan struct{})}
	defer close(blocked.release)
	c := NewConsole("alice", blocked, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Speak(ctx, "say: ")
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

func TestConsoleClosedInput(t *testing.T) {
	c := NewConsole("alice", strings.NewReader(""), &bytes.Buffer{})

	_, err := c.Speak(context.Background(), "say: ")
	if err != ErrCancelled {
		t.Errorf("expected ErrCancelled on exhausted input, got %v", err)
	}
}

// blockedReader blocks Read until its release channel closes, then
// reports EOF.
type blockedReader struct {
	release chan struct{}
}

func (b *blockedReader) Read(p []byte) (int, error) {
	<-b.release
	return 0, io.EOF
}

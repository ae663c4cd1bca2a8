package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebster45206/ludus/pkg/chat"
)

func TestMockLLMDefaults(t *testing.T) {
	mock := NewMockLLM()

	if err := mock.InitModel(context.Background(), "test-model"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	resp, err := mock.GetChatResponse(context.Background(), []chat.Message{chat.User("hi")})
	if err != nil {
		t.Fatalf("GetChatResponse failed: %v", err)
	}
	if resp.Message == "" {
		t.Error("Expected a default response message")
	}
}

func TestMockLLMSetResponse(t *testing.T) {
	mock := NewMockLLM()
	mock.SetResponse("I accuse Petra.")

	resp, err := mock.GetChatResponse(context.Background(), []chat.Message{chat.User("speak")})
	if err != nil {
		t.Fatalf("GetChatResponse failed: %v", err)
	}
	if resp.Message != "I accuse Petra." {
		t.Errorf("Expected configured response, got %q", resp.Message)
	}
}

func TestMockLLMSetError(t *testing.T) {
	mock := NewMockLLM()
	mock.SetError(errors.New("backend down"))

	if _, err := mock.GetChatResponse(context.Background(), []chat.Message{chat.User("speak")}); err == nil {
		t.Fatal("Expected configured error")
	}
}

func TestMockLLMCallTracking(t *testing.T) {
	mock := NewMockLLM()

	_, _ = mock.GetChatResponse(context.Background(), []chat.Message{chat.User("one")})
	_, _ = mock.GetChatResponse(context.Background(), []chat.Message{chat.User("two")})

	if got := mock.CallCount(); got != 2 {
		t.Errorf("Expected 2 recorded calls, got %d", got)
	}
}

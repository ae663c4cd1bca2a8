package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/ludus/pkg/chat"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	InitModelFunc       func(ctx context.Context, modelName string) error
	GetChatResponseFunc func(ctx context.Context, messages []chat.Message) (*chat.Response, error)

	// Track calls for testing
	InitModelCalls       []string
	GetChatResponseCalls [][]chat.Message

	mu sync.Mutex // protects all fields above
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		InitModelCalls:       make([]string, 0),
		GetChatResponseCalls: make([][]chat.Message, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GetChatResponse mocks completion generation
func (m *MockLLM) GetChatResponse(ctx context.Context, messages []chat.Message) (*chat.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetChatResponseCalls = append(m.GetChatResponseCalls, messages)

	if m.GetChatResponseFunc != nil {
		return m.GetChatResponseFunc(ctx, messages)
	}
	return &chat.Response{Message: "Mock response"}, nil
}

// SetResponse sets up the mock to always answer with the given text
func (m *MockLLM) SetResponse(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetChatResponseFunc = func(ctx context.Context, messages []chat.Message) (*chat.Response, error) {
		return &chat.Response{Message: text}, nil
	}
}

// SetError sets up the mock to return an error on GetChatResponse
func (m *MockLLM) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetChatResponseFunc = func(ctx context.Context, messages []chat.Message) (*chat.Response, error) {
		return nil, err
	}
}

// CallCount returns the number of completion calls so far
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GetChatResponseCalls)
}

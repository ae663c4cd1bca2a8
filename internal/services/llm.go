package services

import (
	"context"

	"github.com/jwebster45206/ludus/pkg/chat"
)

// LLMService is the completion backend behind automated players. It
// extends the participant-facing completer with startup concerns.
type LLMService interface {
	// InitModel prepares the model on startup, pulling or validating it
	// as the backend requires.
	InitModel(ctx context.Context, modelName string) error

	// GetChatResponse generates a chat completion.
	GetChatResponse(ctx context.Context, messages []chat.Message) (*chat.Response, error)
}

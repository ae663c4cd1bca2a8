package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/ludus/pkg/eventlog"
)

// PlayerProfile is a reusable automated-player configuration: a display
// name plus the provider settings and persona flavor its games use.
type PlayerProfile struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Provider string    `json:"provider,omitempty"`
	Model    string    `json:"model,omitempty"`
	Persona  string    `json:"persona,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage defines the persistence interface: player profiles plus the
// durable copy of each session's per-observer event streams.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SavePlayerProfile(ctx context.Context, p *PlayerProfile) error
	// GetPlayerProfile returns nil without error when the profile
	// does not exist.
	GetPlayerProfile(ctx context.Context, id uuid.UUID) (*PlayerProfile, error)
	ListPlayerProfiles(ctx context.Context) ([]PlayerProfile, error)
	DeletePlayerProfile(ctx context.Context, id uuid.UUID) error

	AppendEvent(ctx context.Context, sessionID uuid.UUID, observer string, entry eventlog.Entry) error
	GetEvents(ctx context.Context, sessionID uuid.UUID, observer string) ([]eventlog.Entry, error)
}

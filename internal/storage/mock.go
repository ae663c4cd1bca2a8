package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/ludus/pkg/eventlog"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	profiles  map[uuid.UUID]*PlayerProfile
	events    map[string][]eventlog.Entry
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		profiles: make(map[uuid.UUID]*PlayerProfile),
		events:   make(map[string][]eventlog.Entry),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SavePlayerProfile(ctx context.Context, p *PlayerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *MockStorage) GetPlayerProfile(ctx context.Context, id uuid.UUID) (*PlayerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MockStorage) ListPlayerProfiles(ctx context.Context) ([]PlayerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PlayerProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (m *MockStorage) DeletePlayerProfile(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *MockStorage) AppendEvent(ctx context.Context, sessionID uuid.UUID, observer string, entry eventlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionID.String() + ":" + observer
	m.events[key] = append(m.events[key], entry)
	return nil
}

// EventStreamCount reports how many observer streams hold stored entries.
func (m *MockStorage) EventStreamCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MockStorage) GetEvents(ctx context.Context, sessionID uuid.UUID, observer string) ([]eventlog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := sessionID.String() + ":" + observer
	return append([]eventlog.Entry(nil), m.events[key]...), nil
}

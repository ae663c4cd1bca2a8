package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/ludus/internal/services"
	"github.com/jwebster45206/ludus/internal/storage"
	"github.com/jwebster45206/ludus/pkg/engine"
	"github.com/jwebster45206/ludus/pkg/eventlog"
	"github.com/jwebster45206/ludus/pkg/participant"
)

const (
	defaultQueueSize = 8
	stopTimeout      = 10 * time.Second

	// defaultDisconnectGrace is how long a session waits for the owner
	// of a pending turn to reconnect before stopping the game.
	defaultDisconnectGrace = 30 * time.Second
)

var ErrSessionNotFound = errors.New("session not found")

// PlayerSpec declares one seat in a new session: a human identity, or an
// automated player optionally backed by a stored profile.
type PlayerSpec struct {
	Name      string    `json:"name"`
	Human     bool      `json:"human"`
	ProfileID uuid.UUID `json:"profile_id,omitempty"`
}

// StartRequest asks the manager to launch a game.
type StartRequest struct {
	GameID  string       `json:"game_id"`
	Players []PlayerSpec `json:"players"`
}

// Manager owns all live sessions: one engine goroutine each, created on
// Start, cancelled on Stop, dropped some time after they end.
type Manager struct {
	registry  *Registry
	llm       services.LLMService
	store     storage.Storage
	logger    *slog.Logger
	queueSize int
	retention time.Duration
	grace     time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager. queueSize bounds each player's
// inbound queue (0 uses the default); retention is how long ended
// sessions stay queryable (0 drops them immediately).
func NewManager(registry *Registry, llm services.LLMService, store storage.Storage, logger *slog.Logger, queueSize int, retention time.Duration) *Manager {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Manager{
		registry:  registry,
		llm:       llm,
		store:     store,
		logger:    logger,
		queueSize: queueSize,
		retention: retention,
		grace:     defaultDisconnectGrace,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Start validates the request, runs game setup synchronously so
// configuration errors surface to the caller, and launches the engine
// goroutine. A failed setup leaves no durable state behind.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Session, error) {
	def, err := m.registry.Lookup(req.GameID)
	if err != nil {
		return nil, err
	}

	if len(req.Players) < def.Info.MinPlayers || len(req.Players) > def.Info.MaxPlayers {
		return nil, fmt.Errorf("%s needs %d-%d players, got %d",
			def.Info.ID, def.Info.MinPlayers, def.Info.MaxPlayers, len(req.Players))
	}

	specs := make(map[string]PlayerSpec, len(req.Players))
	names := make([]string, 0, len(req.Players))
	players := make([]*engine.Player, 0, len(req.Players))
	for _, spec := range req.Players {
		if spec.Name == "" {
			return nil, errors.New("player name must not be empty")
		}
		if spec.Name == eventlog.ModeratorStream {
			return nil, fmt.Errorf("player name %q is reserved", spec.Name)
		}
		if _, dup := specs[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate player name %q", spec.Name)
		}
		specs[spec.Name] = spec
		names = append(names, spec.Name)
		players = append(players, &engine.Player{
			Name:  spec.Name,
			Alive: true,
			Human: spec.Human,
		})
	}

	sessionID := uuid.New()
	log := m.logger.With("session_id", sessionID.String())

	events := eventlog.New(names)
	match := def.New()
	eng := engine.New(match.Rules(), players, events, log)

	s := &Session{
		ID:          sessionID,
		GameID:      req.GameID,
		CreatedAt:   time.Now(),
		engine:      eng,
		match:       match,
		events:      events,
		logger:      log,
		grace:       m.grace,
		done:        make(chan struct{}),
		status:      StatusRunning,
		queues:      make(map[string]chan string),
		subs:        make(map[int]*subscriber),
		pending:     make(map[string]*TurnRequest),
		graceTimers: make(map[string]*time.Timer),
	}
	for _, spec := range req.Players {
		if spec.Human {
			s.queues[spec.Name] = make(chan string, m.queueSize)
		}
	}
	events.SetSink(s)

	bind := func(p *engine.Player) error {
		spec := specs[p.Name]
		if spec.Human {
			p.Participant = participant.NewRemote(p.Name, s.queues[p.Name], s)
			return nil
		}

		persona := match.Persona(p)
		if spec.ProfileID != uuid.Nil && m.store != nil {
			profile, err := m.store.GetPlayerProfile(ctx, spec.ProfileID)
			if err != nil {
				return fmt.Errorf("failed to load player profile: %w", err)
			}
			if profile == nil {
				return fmt.Errorf("player profile %s not found", spec.ProfileID)
			}
			if profile.Persona != "" {
				persona += "\nYour personality: " + profile.Persona
			}
		}

		standing, oneTime := match.Reminders()
		p.Participant = participant.NewAutomated(p.Name, persona, m.llm, events, log,
			participant.WithReminders(standing...),
			participant.WithOneTimeReminders(oneTime...))
		return nil
	}

	if err := match.Setup(ctx, eng, bind); err != nil {
		return nil, fmt.Errorf("game setup failed: %w", err)
	}

	// Durable write-through starts only after setup succeeds, so a
	// failed start leaves nothing behind in storage. Entries recorded
	// during setup are replayed into the persister first.
	if m.store != nil {
		persister := &persistAdapter{store: m.store, sessionID: sessionID}
		for _, o := range append(events.Observers(), eventlog.ModeratorStream) {
			for _, entry := range events.Stream(o) {
				if err := persister.AppendEntry(o, entry); err != nil {
					log.Warn("failed to persist setup event", "error", err, "observer", o)
				}
			}
		}
		events.SetPersister(persister)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	m.mu.Lock()
	m.sessions[sessionID] = s
	m.mu.Unlock()

	go s.run(runCtx)
	go m.reap(s)

	log.Info("session started", "game_id", req.GameID, "players", len(names))
	return s, nil
}

// reap removes the session from the index once it has ended and its
// retention window passed.
func (m *Manager) reap(s *Session) {
	<-s.done
	if m.retention > 0 {
		time.Sleep(m.retention)
	}
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns summaries of all known sessions.
func (m *Manager) List() []Summary {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	return out
}

// Stop cancels a session and waits, bounded, for the engine goroutine to
// unwind. Participants blocked on input observe the cancellation and
// return promptly, so the wait is normally instantaneous.
func (m *Manager) Stop(id uuid.UUID) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}

	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("session %s did not stop within %s", id, stopTimeout)
	}
}

// Respond routes one line of player input to its session.
func (m *Manager) Respond(id uuid.UUID, identity, text string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.Respond(identity, text)
}

// Subscribe attaches an observer stream to a session.
func (m *Manager) Subscribe(id uuid.UUID, observer string) (*Session, *Subscription, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}
	sub, err := s.Subscribe(observer)
	if err != nil {
		return nil, nil, err
	}
	return s, sub, nil
}

// StopAll cancels every live session, used during shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
	}
	for _, s := range sessions {
		select {
		case <-s.done:
		case <-time.After(stopTimeout):
			m.logger.Warn("session did not stop during shutdown", "session_id", s.ID)
		}
	}
}

// persistAdapter writes event entries through to durable storage.
type persistAdapter struct {
	store     storage.Storage
	sessionID uuid.UUID
}

var _ eventlog.Persister = (*persistAdapter)(nil)

func (p *persistAdapter) AppendEntry(observer string, entry eventlog.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.store.AppendEvent(ctx, p.sessionID, observer, entry)
}

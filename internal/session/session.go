package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/ludus/pkg/engine"
	"github.com/jwebster45206/ludus/pkg/eventlog"
	"github.com/jwebster45206/ludus/pkg/participant"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusStopped  Status = "stopped"
)

var (
	ErrUnknownIdentity = errors.New("unknown player identity")
	ErrUnknownObserver = errors.New("unknown observer")
	ErrQueueFull       = errors.New("player queue is full")
	ErrNotRunning      = errors.New("session is not running")
)

// Envelope types pushed to subscribers.
const (
	EnvelopeEvent  = "event"
	EnvelopeTurn   = "turn"
	EnvelopeStatus = "status"
)

// TurnRequest tells a connected client its player is expected to act.
type TurnRequest struct {
	Identity  string   `json:"identity"`
	Kind      string   `json:"kind"`
	Prompt    string   `json:"prompt"`
	Options   []string `json:"options,omitempty"`
	AllowSkip bool     `json:"allow_skip,omitempty"`
}

// Envelope is one message on a subscriber stream.
type Envelope struct {
	Type   string          `json:"type"`
	Event  *eventlog.Entry `json:"event,omitempty"`
	Turn   *TurnRequest    `json:"turn,omitempty"`
	Status Status          `json:"status,omitempty"`
}

// Summary is the queryable snapshot of a session.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	GameID    string    `json:"game_id"`
	Status    Status    `json:"status"`
	Players   []string  `json:"players"`
	CreatedAt time.Time `json:"created_at"`
}

type subscriber struct {
	observer string
	ch       chan Envelope
	afterSeq int
}

// Session is one running game. The engine runs on its own goroutine;
// everything else reaches the session through Respond, Subscribe and the
// cancel function. Each human identity has a buffered inbound queue with
// the engine goroutine as sole consumer; the queue survives client
// reconnects for the life of the session.
type Session struct {
	ID        uuid.UUID
	GameID    string
	CreatedAt time.Time

	engine *engine.Engine
	match  Match
	events *eventlog.Log
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	// grace is how long the owner of a pending turn may stay
	// disconnected before the session is stopped.
	grace time.Duration

	mu          sync.Mutex
	status      Status
	queues      map[string]chan string
	subs        map[int]*subscriber
	nextSub     int
	pending     map[string]*TurnRequest
	graceTimers map[string]*time.Timer
}

var (
	_ participant.Transport = (*Session)(nil)
	_ eventlog.Sink         = (*Session)(nil)
)

// Done is closed when the engine goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Events exposes the session's event ledger.
func (s *Session) Events() *eventlog.Log { return s.events }

func (s *Session) Summary() Summary {
	return Summary{
		ID:        s.ID,
		GameID:    s.GameID,
		Status:    s.Status(),
		Players:   s.events.Observers(),
		CreatedAt: s.CreatedAt,
	}
}

// Respond feeds one line of input to a human player's queue. The send
// never blocks: a full queue is the client's error, not the engine's.
func (s *Session) Respond(identity, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[identity]
	if !ok {
		return ErrUnknownIdentity
	}
	if s.status != StatusRunning {
		return ErrNotRunning
	}

	select {
	case q <- text:
		delete(s.pending, identity)
		s.disarmGraceLocked(identity)
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscription is one observer's live feed. Replay holds everything the
// observer could already see at subscribe time; C carries everything
// after that.
type Subscription struct {
	ID     int
	Replay []eventlog.Entry
	C      <-chan Envelope
}

// Subscribe attaches an observer stream. The observer must be a player
// name or the moderator stream. Reconnecting yields a fresh replay of
// the observer's full history followed by any still-pending turn
// request, so no input or output is lost across a disconnect.
func (s *Session) Subscribe(observer string) (*Subscription, error) {
	if !s.knownObserver(observer) {
		return nil, ErrUnknownObserver
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replay := s.events.Stream(observer)
	afterSeq := 0
	if len(replay) > 0 {
		afterSeq = replay[len(replay)-1].Seq
	}

	sub := &subscriber{
		observer: observer,
		ch:       make(chan Envelope, 64),
		afterSeq: afterSeq,
	}
	s.nextSub++
	id := s.nextSub
	s.subs[id] = sub
	s.disarmGraceLocked(observer)

	if turn, ok := s.pending[observer]; ok {
		sub.ch <- Envelope{Type: EnvelopeTurn, Turn: turn}
	}

	return &Subscription{ID: id, Replay: replay, C: sub.ch}, nil
}

// Unsubscribe detaches an observer stream and closes its channel. The
// player's queue and identity stay valid for a later resubscribe, but a
// player who disconnects during their own turn and stays away for the
// grace period has the session stopped.
func (s *Session) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return
	}
	delete(s.subs, id)
	close(sub.ch)

	if _, waiting := s.pending[sub.observer]; waiting && !s.connectedLocked(sub.observer) {
		s.armGraceLocked(sub.observer)
	}
}

func (s *Session) knownObserver(observer string) bool {
	if observer == eventlog.ModeratorStream {
		return true
	}
	for _, o := range s.events.Observers() {
		if o == observer {
			return true
		}
	}
	return false
}

// RequestTurn implements participant.Transport. The latest unanswered
// request per identity is kept for replay to reconnecting clients.
func (s *Session) RequestTurn(identity, kind, prompt string, options []string, allowSkip bool) {
	turn := &TurnRequest{
		Identity:  identity,
		Kind:      kind,
		Prompt:    prompt,
		Options:   append([]string(nil), options...),
		AllowSkip: allowSkip,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[identity] = turn
	for _, sub := range s.subs {
		if sub.observer == identity || sub.observer == eventlog.ModeratorStream {
			s.push(sub, Envelope{Type: EnvelopeTurn, Turn: turn})
		}
	}
	if !s.connectedLocked(identity) {
		s.armGraceLocked(identity)
	}
}

// connectedLocked reports whether any live subscription belongs to the
// observer. Moderator connections do not count as the player's own.
func (s *Session) connectedLocked(observer string) bool {
	for _, sub := range s.subs {
		if sub.observer == observer {
			return true
		}
	}
	return false
}

// armGraceLocked starts the disconnect clock for the owner of a pending
// turn. Idempotent while a clock is already running.
func (s *Session) armGraceLocked(identity string) {
	if s.grace <= 0 || s.status != StatusRunning {
		return
	}
	if _, running := s.graceTimers[identity]; running {
		return
	}
	s.graceTimers[identity] = time.AfterFunc(s.grace, func() {
		s.graceExpired(identity)
	})
}

func (s *Session) disarmGraceLocked(identity string) {
	if timer, ok := s.graceTimers[identity]; ok {
		timer.Stop()
		delete(s.graceTimers, identity)
	}
}

// graceExpired stops the session when a pending turn's owner is still
// disconnected after the grace period. The engine goroutine observes the
// cancellation and unwinds through the stopped path.
func (s *Session) graceExpired(identity string) {
	s.mu.Lock()
	delete(s.graceTimers, identity)
	_, waiting := s.pending[identity]
	abandoned := s.status == StatusRunning && waiting && !s.connectedLocked(identity)
	s.mu.Unlock()

	if !abandoned {
		return
	}
	s.logger.Warn("stopping session: player disconnected during their turn",
		"session_id", s.ID, "identity", identity, "grace", s.grace)
	s.cancel()
}

// EventRecorded implements eventlog.Sink, fanning each new entry out to
// the subscribers allowed to see it.
func (s *Session) EventRecorded(entry eventlog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if entry.Seq <= sub.afterSeq {
			continue // already delivered via replay
		}
		if !entryVisible(entry, sub.observer) {
			continue
		}
		e := entry
		s.push(sub, Envelope{Type: EnvelopeEvent, Event: &e})
	}
}

func entryVisible(entry eventlog.Entry, observer string) bool {
	if entry.Public() || observer == eventlog.ModeratorStream {
		return true
	}
	for _, o := range entry.VisibleTo {
		if o == observer {
			return true
		}
	}
	return false
}

// push delivers without blocking. A subscriber that cannot keep up loses
// envelopes; its next reconnect replays the authoritative ledger.
func (s *Session) push(sub *subscriber, env Envelope) {
	select {
	case sub.ch <- env:
	default:
		s.logger.Warn("dropping envelope for slow subscriber",
			"session_id", s.ID, "observer", sub.observer)
	}
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	for _, sub := range s.subs {
		s.push(sub, Envelope{Type: EnvelopeStatus, Status: status})
	}
	s.mu.Unlock()
}

// run executes the engine to completion and settles the final status.
// Cancellation is not an error: the session ends in the stopped state
// with a closing announcement on the ledger.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		s.mu.Lock()
		for identity, timer := range s.graceTimers {
			timer.Stop()
			delete(s.graceTimers, identity)
		}
		s.mu.Unlock()
	}()

	err := s.engine.Run(ctx)
	switch {
	case err == nil:
		s.logger.Info("session finished", "session_id", s.ID)
		s.setStatus(StatusFinished)
	case errors.Is(err, participant.ErrCancelled):
		s.logger.Info("session stopped", "session_id", s.ID)
		s.events.Record(s.match.StoppedMessage())
		s.setStatus(StatusStopped)
	default:
		s.logger.Error("session ended with error", "session_id", s.ID, "error", err)
		s.events.Record(s.match.StoppedMessage())
		s.setStatus(StatusStopped)
	}
}

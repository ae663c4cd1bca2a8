// Package engine implements a generic turn-based game engine. A game is
// an ordered cycle of phases, each an ordered list of steps gated by role
// requirements and preconditions; rulesets supply the phases and the
// termination predicate, and the engine drives execution against a set of
// players backed by pkg/participant.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/jwebster45206/ludus/pkg/eventlog"
	"github.com/jwebster45206/ludus/pkg/participant"
)

// State is the lifecycle of one engine run.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateFinished   State = "finished"
)

// Role is a rule-set-defined player role. The engine treats roles as
// opaque identifiers; only the ruleset gives them meaning.
type Role string

// Player is one member of a session's player set, owned exclusively by
// the engine for the session's lifetime.
type Player struct {
	Name        string
	Role        Role
	Alive       bool
	Human       bool
	Participant participant.Participant

	modifiers map[string]bool
}

// SetModifier flags a transient per-round modifier, e.g. "protected".
func (p *Player) SetModifier(name string) {
	if p.modifiers == nil {
		p.modifiers = make(map[string]bool)
	}
	p.modifiers[name] = true
}

// HasModifier reports whether the modifier is currently set.
func (p *Player) HasModifier(name string) bool {
	return p.modifiers[name]
}

// ClearModifiers removes all transient modifiers, typically at the start
// of a new round.
func (p *Player) ClearModifiers() {
	p.modifiers = nil
}

// Action is a unit of game logic bound to a step.
type Action interface {
	// Execute runs the action. Returning an error halts the run; the
	// cancellation error from a blocked participant call propagates
	// through here.
	Execute(ctx context.Context, ac *Context) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, ac *Context) error

func (f ActionFunc) Execute(ctx context.Context, ac *Context) error {
	return f(ctx, ac)
}

// Context is handed to an action on execution. Scratch is a free-form
// side channel for passing a computed value between steps of the same
// phase execution; it does not survive the phase.
type Context struct {
	Engine  *Engine
	Player  *Player // acting player, nil for unconditional steps
	Scratch map[string]any
}

// Step is one unit of phase execution. A step whose required roles are
// all absent, or whose precondition is false, is skipped silently.
type Step struct {
	Name         string
	Roles        []Role // empty: unconditional
	Precondition func(*Engine) bool
	Action       Action
}

// Phase is a named, ordered list of steps. Phases are immutable after
// ruleset construction and shared read-only across the run.
type Phase struct {
	Name  string
	Steps []Step
}

// Ruleset supplies the game definition the engine executes.
type Ruleset interface {
	// Phases returns the phase cycle, executed in order and repeated
	// until GameOver reports true.
	Phases() []Phase

	// GameOver is evaluated before every step. A true result halts the
	// run immediately, mid-phase.
	GameOver(e *Engine) bool
}

// Engine drives one game to completion.
type Engine struct {
	rules  Ruleset
	events *eventlog.Log
	log    *slog.Logger
	rng    *rand.Rand

	players map[string]*Player
	order   []string
	round   int
	state   State
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source used for shuffling. Tests use a
// fixed seed for deterministic orderings.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// New creates an engine over the given players. Player order is
// preserved as the default speaking order.
func New(rules Ruleset, players []*Player, events *eventlog.Log, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		rules:   rules,
		events:  events,
		log:     log,
		players: make(map[string]*Player, len(players)),
		state:   StateNotStarted,
	}
	for _, p := range players {
		e.players[p.Name] = p
		e.order = append(e.order, p.Name)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return e
}

// State returns the engine lifecycle state.
func (e *Engine) State() State { return e.state }

// Round returns the current round number. It only increases.
func (e *Engine) Round() int { return e.round }

// NextRound increments the round counter. Called by the ruleset once per
// cycle, conventionally at night start.
func (e *Engine) NextRound() int {
	e.round++
	return e.round
}

// Events exposes the session ledger for rulesets and actions.
func (e *Engine) Events() *eventlog.Log { return e.events }

// Logger exposes the session logger.
func (e *Engine) Logger() *slog.Logger { return e.log }

// Rand exposes the engine's random source for ruleset shuffles.
func (e *Engine) Rand() *rand.Rand { return e.rng }

// Player returns a player by name, or nil.
func (e *Engine) Player(name string) *Player { return e.players[name] }

// PlayerNames returns all player names in seating order, dead or alive.
func (e *Engine) PlayerNames() []string {
	return append([]string(nil), e.order...)
}

// Alive returns the names of living players, in seating order, optionally
// filtered to the given roles.
func (e *Engine) Alive(roles ...Role) []string {
	var out []string
	for _, name := range e.order {
		p := e.players[name]
		if !p.Alive {
			continue
		}
		if len(roles) == 0 {
			out = append(out, name)
			continue
		}
		for _, r := range roles {
			if p.Role == r {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// FirstAlive returns the first living player holding the role, or nil.
// Suitable for singleton roles.
func (e *Engine) FirstAlive(role Role) *Player {
	for _, name := range e.order {
		p := e.players[name]
		if p.Alive && p.Role == role {
			return p
		}
	}
	return nil
}

// Announce records a message on the ledger for the given scope; an empty
// scope means everyone.
func (e *Engine) Announce(message string, visibleTo []string) {
	e.events.RecordFor(message, visibleTo)
	e.log.Debug("announce", "message", message, "restricted", len(visibleTo) > 0)
}

// Run executes the phase cycle until the ruleset's termination predicate
// fires or ctx is cancelled. A cancellation surfaces as
// participant.ErrCancelled; any other error is a hard failure.
func (e *Engine) Run(ctx context.Context) error {
	if e.state != StateNotStarted {
		return fmt.Errorf("engine already started (state %s)", e.state)
	}
	e.state = StateRunning

	phases := e.rules.Phases()
	if len(phases) == 0 {
		e.state = StateFinished
		return errors.New("ruleset has no phases")
	}

	for e.state == StateRunning {
		for i := range phases {
			halted, err := e.runPhase(ctx, &phases[i])
			if err != nil {
				e.state = StateFinished
				return err
			}
			if halted {
				e.state = StateFinished
				return nil
			}
		}
	}
	return nil
}

// runPhase executes one phase. It reports halted=true when the
// termination predicate fired before some step.
func (e *Engine) runPhase(ctx context.Context, phase *Phase) (bool, error) {
	scratch := make(map[string]any)

	for i := range phase.Steps {
		step := &phase.Steps[i]

		if e.rules.GameOver(e) {
			e.log.Info("game over before step", "phase", phase.Name, "step", step.Name, "round", e.round)
			return true, nil
		}
		if err := ctx.Err(); err != nil {
			return false, participant.ErrCancelled
		}
		if !e.stepEligible(step) {
			e.log.Debug("step skipped", "phase", phase.Name, "step", step.Name)
			continue
		}

		ac := &Context{Engine: e, Scratch: scratch}
		if err := step.Action.Execute(ctx, ac); err != nil {
			if errors.Is(err, participant.ErrCancelled) {
				return false, participant.ErrCancelled
			}
			return false, fmt.Errorf("step %s/%s: %w", phase.Name, step.Name, err)
		}
	}
	return false, nil
}

func (e *Engine) stepEligible(step *Step) bool {
	if len(step.Roles) > 0 && len(e.Alive(step.Roles...)) == 0 {
		return false
	}
	if step.Precondition != nil && !step.Precondition(e) {
		return false
	}
	return true
}

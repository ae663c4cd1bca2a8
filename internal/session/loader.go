package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jwebster45206/ludus/pkg/engine"
	"github.com/jwebster45206/ludus/pkg/werewolf"
)

// GameInfo describes a playable game for discovery endpoints.
type GameInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MinPlayers  int    `json:"min_players"`
	MaxPlayers  int    `json:"max_players"`
}

// Match is one game instance's ruleset as the session layer sees it:
// the engine rules plus the hooks the orchestrator needs around them.
type Match interface {
	// Rules returns the engine ruleset driving the match.
	Rules() engine.Ruleset

	// Setup assigns roles and calls bind once per player so the caller
	// can attach the participant variant. A bind error aborts the match.
	Setup(ctx context.Context, e *engine.Engine, bind func(p *engine.Player) error) error

	// Persona builds the system prompt for an automated player. Only
	// valid after Setup has assigned the player's role.
	Persona(p *engine.Player) string

	// Reminders returns the standing and first-request-only reminders
	// for automated players.
	Reminders() (standing []string, oneTime []string)

	// StoppedMessage is the announcement recorded when the match is
	// cancelled before its natural end.
	StoppedMessage() string
}

// Definition registers one game: its description and a factory for
// fresh match instances.
type Definition struct {
	Info GameInfo
	New  func() Match
}

// Registry maps game IDs to definitions.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Definition)}
}

func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[def.Info.ID] = def
}

func (r *Registry) Lookup(gameID string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.games[gameID]
	if !ok {
		return Definition{}, fmt.Errorf("unknown game %q", gameID)
	}
	return def, nil
}

// List returns the registered games sorted by ID.
func (r *Registry) List() []GameInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]GameInfo, 0, len(r.games))
	for _, def := range r.games {
		out = append(out, def.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultGames builds the registry with the built-in games.
func DefaultGames(wcfg werewolf.Config) *Registry {
	r := NewRegistry()
	r.Register(Definition{
		Info: GameInfo{
			ID:          werewolf.GameID,
			Name:        "Werewolf",
			Description: "Social deduction with hidden roles, night kills and daytime votes.",
			MinPlayers:  4,
			MaxPlayers:  12,
		},
		New: func() Match { return &werewolfMatch{rules: werewolf.New(wcfg)} },
	})
	return r
}

// werewolfMatch adapts the werewolf ruleset to the Match interface.
type werewolfMatch struct {
	rules *werewolf.Rules
}

var _ Match = (*werewolfMatch)(nil)

func (m *werewolfMatch) Rules() engine.Ruleset { return m.rules }

func (m *werewolfMatch) Setup(ctx context.Context, e *engine.Engine, bind func(p *engine.Player) error) error {
	return m.rules.Setup(ctx, e, bind)
}

func (m *werewolfMatch) Persona(p *engine.Player) string {
	return m.rules.Prompts().Persona.Persona(p.Name, string(p.Role))
}

func (m *werewolfMatch) Reminders() ([]string, []string) {
	pp := m.rules.Prompts().Persona
	return []string{pp.ReminderAntiStall, pp.ReminderWolfReady},
		[]string{pp.ReminderFirstNight}
}

func (m *werewolfMatch) StoppedMessage() string {
	return m.rules.Prompts().Game.Stopped
}

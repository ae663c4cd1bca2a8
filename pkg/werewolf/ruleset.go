package werewolf

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/ludus/pkg/engine"
	"github.com/jwebster45206/ludus/pkg/participant"
)

const defaultMaxDiscussionRounds = 5

// Config tunes the ruleset.
type Config struct {
	// Prompts overrides the built-in templates. Nil uses the defaults.
	Prompts *Prompts

	// MaxDiscussionRounds bounds the werewolf night discussion.
	// Zero uses the default of 5.
	MaxDiscussionRounds int

	// FirstNightPoisonNoLastWords disables last words for the victim of
	// a first-night poison. By default the first-night exception covers
	// poison deaths as well as wolf kills; rule tables differ on this,
	// so it is an explicit policy switch rather than an inferred
	// behavior.
	FirstNightPoisonNoLastWords bool
}

// pendingDeath is a death computed at night and resolved later in the
// cycle, carrying its true cause.
type pendingDeath struct {
	name  string
	cause DeathCause
}

// Rules is one game's werewolf ruleset instance. It holds the
// cross-step night state (pending kill, guard memory, witch potions), so
// an instance must not be shared between engines.
type Rules struct {
	prompts             *Prompts
	maxDiscussionRounds int
	firstNightPoisonLW  bool

	phases []engine.Phase

	pendingKill *pendingDeath
	lastGuarded string
	saveUsed    bool
	poisonUsed  bool

	outcomeAnnounced bool
}

var _ engine.Ruleset = (*Rules)(nil)

// New creates a werewolf ruleset.
func New(cfg Config) *Rules {
	r := &Rules{
		prompts:             cfg.Prompts,
		maxDiscussionRounds: cfg.MaxDiscussionRounds,
		firstNightPoisonLW:  !cfg.FirstNightPoisonNoLastWords,
	}
	if r.prompts == nil {
		r.prompts = DefaultPrompts()
	}
	if r.maxDiscussionRounds <= 0 {
		r.maxDiscussionRounds = defaultMaxDiscussionRounds
	}
	r.phases = []engine.Phase{
		{
			Name: "night",
			Steps: []engine.Step{
				{Name: "night_start", Action: engine.ActionFunc(r.nightStart)},
				{Name: "guard", Roles: []engine.Role{RoleGuard}, Action: engine.ActionFunc(r.guardAction)},
				{Name: "werewolves", Roles: []engine.Role{RoleWerewolf}, Action: engine.ActionFunc(r.werewolfAction)},
				{Name: "seer", Roles: []engine.Role{RoleSeer}, Action: engine.ActionFunc(r.seerAction)},
				{Name: "witch", Roles: []engine.Role{RoleWitch}, Action: engine.ActionFunc(r.witchAction)},
			},
		},
		{
			Name: "day",
			Steps: []engine.Step{
				{Name: "day_start", Action: engine.ActionFunc(r.dayStart)},
				{Name: "discussion", Action: engine.ActionFunc(r.dayDiscussion)},
				{Name: "vote", Action: engine.ActionFunc(r.dayVote)},
			},
		},
	}
	return r
}

// Prompts exposes the active templates, e.g. for the session's stop
// announcement and automated-player personas.
func (r *Rules) Prompts() *Prompts { return r.prompts }

// Phases returns the night/day cycle.
func (r *Rules) Phases() []engine.Phase { return r.phases }

// GameOver reports whether a side has won: the village once no werewolf
// lives, the werewolves once they are at least half the survivors. The
// outcome is announced exactly once.
func (r *Rules) GameOver(e *engine.Engine) bool {
	wolves := len(e.Alive(RoleWerewolf))
	village := len(e.Alive(villageRoles...))

	switch {
	case wolves == 0:
		if !r.outcomeAnnounced {
			e.Announce(r.prompts.Game.VillageWin, nil)
			r.outcomeAnnounced = true
		}
		return true
	case wolves >= village:
		if !r.outcomeAnnounced {
			e.Announce(r.prompts.Game.WerewolfWin, nil)
			r.outcomeAnnounced = true
		}
		return true
	}
	return false
}

// Setup assigns roles and wires participants. bind is called once per
// player after its role is set, letting the caller attach the right
// participant variant (the persona of an automated player depends on the
// assigned role). A bind error is a configuration error: the game must
// not start.
func (r *Rules) Setup(ctx context.Context, e *engine.Engine, bind func(p *engine.Player) error) error {
	names := e.PlayerNames()
	if len(names) < 4 {
		return fmt.Errorf("werewolf needs at least 4 players, got %d", len(names))
	}

	counts := RoleCounts(len(names))
	var roleList []engine.Role
	var configParts []string
	for _, role := range []engine.Role{RoleWerewolf, RoleVillager, RoleSeer, RoleWitch, RoleHunter, RoleGuard} {
		n := counts[role]
		if n <= 0 {
			continue
		}
		configParts = append(configParts, fmt.Sprintf("%s x%d", role, n))
		for i := 0; i < n; i++ {
			roleList = append(roleList, role)
		}
	}
	if len(roleList) != len(names) {
		return fmt.Errorf("role table mismatch: %d roles for %d players", len(roleList), len(names))
	}
	e.Rand().Shuffle(len(roleList), func(i, j int) {
		roleList[i], roleList[j] = roleList[j], roleList[i]
	})

	e.Announce(fmt.Sprintf(r.prompts.Game.PlayerCount, len(names)), nil)
	e.Announce(fmt.Sprintf(r.prompts.Game.RoleConfig, strings.Join(configParts, ", ")), nil)
	e.Announce(fmt.Sprintf(r.prompts.Game.PlayersJoined, strings.Join(names, ", ")), nil)

	for i, name := range names {
		p := e.Player(name)
		p.Role = roleList[i]
		if err := bind(p); err != nil {
			return fmt.Errorf("failed to bind participant for %s: %w", name, err)
		}
	}

	e.Announce(r.prompts.Game.Assigning, nil)

	wolves := e.Alive(RoleWerewolf)
	for _, name := range names {
		p := e.Player(name)
		e.Announce(fmt.Sprintf(r.prompts.Game.YourRole, p.Role), []string{name})
		if p.Role != RoleWerewolf {
			continue
		}
		var teammates []string
		for _, w := range wolves {
			if w != name {
				teammates = append(teammates, w)
			}
		}
		if len(teammates) > 0 {
			e.Announce(fmt.Sprintf(r.prompts.Game.WolfTeammates, strings.Join(teammates, ", ")), []string{name})
		} else {
			e.Announce(r.prompts.Game.LoneWolf, []string{name})
		}
	}

	e.Announce(r.prompts.Game.Start, nil)
	return nil
}

// resolveDeath marks the player dead, announces the cause, collects last
// words when the (cause, round) predicate allows them, and runs death
// follow-ups. Resolving an already-dead or unknown player is a no-op.
// The hunter's retaliation executes synchronously here, recursively
// subject to the game-over check before it runs.
func (r *Rules) resolveDeath(ctx context.Context, e *engine.Engine, name string, cause DeathCause) error {
	p := e.Player(name)
	if p == nil || !p.Alive {
		return nil
	}
	p.Alive = false
	e.Announce(fmt.Sprintf(r.prompts.Game.Death, name, r.prompts.Causes.Describe(cause)), nil)

	if r.lastWordsEligible(cause, e.Round()) {
		words, err := p.Participant.Speak(ctx, fmt.Sprintf(r.prompts.Game.LastWordsPrompt, name))
		if err != nil {
			return err
		}
		if words != "" {
			e.Announce(fmt.Sprintf(r.prompts.Game.LastWords, name, words), nil)
		} else {
			e.Announce(fmt.Sprintf(r.prompts.Game.LastWordsSilence, name), nil)
		}
	}

	if p.Role == RoleHunter {
		if r.GameOver(e) {
			return nil
		}
		return r.hunterShot(ctx, e, name)
	}
	return nil
}

// lastWordsEligible is the explicit (cause, round) predicate for last
// words: eliminations by vote or hunter shot always qualify; night deaths
// qualify only under the first-night exception, with the poison case
// behind its policy flag.
func (r *Rules) lastWordsEligible(cause DeathCause, round int) bool {
	switch cause {
	case CauseVotedOut, CauseHunterShot:
		return true
	case CauseWolfKill:
		return round == 1
	case CauseWitchPoison:
		return round == 1 && r.firstNightPoisonLW
	}
	return false
}

func (r *Rules) hunterShot(ctx context.Context, e *engine.Engine, hunter string) error {
	e.Announce(fmt.Sprintf(r.prompts.Hunter.DeathTrigger, hunter), nil)

	var targets []string
	for _, name := range e.Alive() {
		if name != hunter {
			targets = append(targets, name)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	p := e.Player(hunter)
	target, err := p.Participant.Choose(ctx, fmt.Sprintf(r.prompts.Hunter.ShootPrompt, hunter), targets, true)
	if err != nil {
		return err
	}
	if target == participant.Skip {
		e.Announce(r.prompts.Hunter.Skip, nil)
		return nil
	}
	e.Announce(fmt.Sprintf(r.prompts.Hunter.Shot, hunter, target), nil)
	return r.resolveDeath(ctx, e, target, CauseHunterShot)
}

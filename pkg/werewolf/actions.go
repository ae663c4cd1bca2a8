package werewolf

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/ludus/pkg/engine"
)

// nightStart opens a new round: bumps the round counter, clears per-round
// modifiers and the pending kill from the previous cycle.
func (r *Rules) nightStart(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	round := e.NextRound()
	e.Announce(fmt.Sprintf(r.prompts.Night.Start, round), nil)

	r.pendingKill = nil
	for _, name := range e.PlayerNames() {
		e.Player(name).ClearModifiers()
	}
	return nil
}

// guardAction lets the guard protect one player, never the same player
// two nights running. The protection modifier is shared engine state so
// later steps in the cycle can see it.
func (r *Rules) guardAction(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	guard := e.FirstAlive(RoleGuard)

	e.Announce(r.prompts.Guard.Wake, []string{guard.Name})

	var targets []string
	for _, name := range e.Alive() {
		if name != r.lastGuarded {
			targets = append(targets, name)
		}
	}
	target, err := guard.Participant.Choose(ctx, r.prompts.Guard.Choose, targets, false)
	if err != nil {
		return err
	}

	e.Player(target).SetModifier(modifierProtected)
	r.lastGuarded = target

	e.Announce(fmt.Sprintf(r.prompts.Guard.Done, target), []string{guard.Name})
	e.Announce(r.prompts.Guard.Acted, nil)
	return nil
}

// werewolfAction runs the wolves' night: a private discussion (skipped
// for a lone wolf) followed by a tie-retrying vote for the kill target.
func (r *Rules) werewolfAction(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	wolves := e.Alive(RoleWerewolf)

	e.Announce(fmt.Sprintf(r.prompts.Werewolf.Wake, strings.Join(wolves, ", ")), wolves)

	if len(wolves) == 1 {
		e.Announce(r.prompts.Werewolf.LoneWolf, wolves)
	} else {
		err := e.RunDiscussion(ctx, engine.DiscussionConfig{
			Speakers:         wolves,
			MaxRounds:        r.maxDiscussionRounds,
			EnableReadyCheck: true,
			Visibility:       wolves,
			Prompts: engine.DiscussionPrompts{
				Start:   r.prompts.Werewolf.DiscussStart,
				Speak:   r.prompts.Werewolf.DiscussPrompt,
				Speech:  r.prompts.Werewolf.DiscussSpeech,
				Ready:   r.prompts.Werewolf.DiscussReady,
				Timeout: r.prompts.Werewolf.DiscussTimeout,
			},
		})
		if err != nil {
			return err
		}
	}

	target, ok, err := e.RunVote(ctx, engine.VoteConfig{
		Voters:     wolves,
		Candidates: e.Alive(),
		RetryOnTie: true,
		Visibility: wolves,
		Prompts: engine.VotePrompts{
			Start:  r.prompts.Werewolf.VoteStart,
			Prompt: r.prompts.Werewolf.VotePrompt,
			Result: r.prompts.Werewolf.VoteResult,
			Tie:    r.prompts.Werewolf.VoteTie,
		},
	})
	if err != nil {
		return err
	}
	if ok {
		r.pendingKill = &pendingDeath{name: target, cause: CauseWolfKill}
	}

	e.Announce(r.prompts.Werewolf.Acted, nil)
	return nil
}

// seerAction lets the seer inspect one player and privately learn
// whether they are a werewolf.
func (r *Rules) seerAction(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	seer := e.FirstAlive(RoleSeer)

	e.Announce(r.prompts.Seer.Wake, []string{seer.Name})

	target, err := seer.Participant.Choose(ctx, r.prompts.Seer.Choose, e.Alive(), false)
	if err != nil {
		return err
	}

	result := r.prompts.Seer.ResultGood
	if e.Player(target).Role == RoleWerewolf {
		result = r.prompts.Seer.ResultWolf
	}
	e.Announce(fmt.Sprintf(result, target), []string{seer.Name})
	e.Announce(r.prompts.Seer.Acted, nil)
	return nil
}

// witchAction shows the witch the night's pending kill (unless the guard
// already blocked it) and offers her one-time save and poison. A poison
// while a kill is still pending is an independent second death, resolved
// immediately; a poison after a save (or a blocked kill) becomes the
// night's only pending death, with its true cause.
func (r *Rules) witchAction(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	witch := e.FirstAlive(RoleWitch)

	e.Announce(r.prompts.Witch.Wake, []string{witch.Name})

	pending := r.pendingKill
	if pending != nil {
		victim := e.Player(pending.name)
		if victim.HasModifier(modifierProtected) {
			e.Announce(fmt.Sprintf(r.prompts.Witch.NightSafe, pending.name), nil)
			pending = nil
		} else {
			e.Announce(fmt.Sprintf(r.prompts.Witch.NightKill, pending.name), []string{witch.Name})
		}
	}

	if !r.saveUsed && pending != nil {
		answer, err := witch.Participant.Choose(ctx, r.prompts.Witch.SavePrompt, []string{"y", "n"}, false)
		if err != nil {
			return err
		}
		if answer == "y" {
			r.saveUsed = true
			e.Announce(fmt.Sprintf(r.prompts.Witch.SaveDone, pending.name), []string{witch.Name})
			e.Announce(r.prompts.Witch.SaveNotice, nil)
			pending = nil
		}
	}

	if !r.poisonUsed {
		answer, err := witch.Participant.Choose(ctx, r.prompts.Witch.PoisonPrompt, []string{"y", "n"}, false)
		if err != nil {
			return err
		}
		if answer == "y" {
			target, err := witch.Participant.Choose(ctx, r.prompts.Witch.PoisonTarget, e.Alive(), false)
			if err != nil {
				return err
			}
			r.poisonUsed = true
			e.Announce(fmt.Sprintf(r.prompts.Witch.PoisonDone, target), []string{witch.Name})
			e.Announce(r.prompts.Witch.PoisonNotice, nil)

			if pending == nil {
				pending = &pendingDeath{name: target, cause: CauseWitchPoison}
			} else if err := r.resolveDeath(ctx, e, target, CauseWitchPoison); err != nil {
				return err
			}
		}
	}

	r.pendingKill = pending

	e.Announce(r.prompts.Witch.Acted, nil)
	return nil
}

// dayStart announces dawn and resolves the night's pending death. A
// pending wolf kill on a protected player is dropped here as well, so
// the guard's protection holds even in games without a witch.
func (r *Rules) dayStart(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	e.Announce(fmt.Sprintf(r.prompts.Day.Start, e.Round()), nil)

	pending := r.pendingKill
	r.pendingKill = nil

	if pending != nil && pending.cause == CauseWolfKill {
		if victim := e.Player(pending.name); victim != nil && victim.HasModifier(modifierProtected) {
			pending = nil
		}
	}

	if pending == nil {
		e.Announce(r.prompts.Day.SafeNight, nil)
		return nil
	}
	return r.resolveDeath(ctx, e, pending.name, pending.cause)
}

// dayDiscussion runs one public round of speeches by the living players.
func (r *Rules) dayDiscussion(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	alive := e.Alive()

	e.Announce(fmt.Sprintf(r.prompts.Day.AlivePlayers, strings.Join(alive, ", ")), nil)

	return e.RunDiscussion(ctx, engine.DiscussionConfig{
		Speakers:  alive,
		MaxRounds: 1,
		Prompts: engine.DiscussionPrompts{
			Speak:  r.prompts.Day.SpeakPrompt,
			Speech: r.prompts.Day.Speech,
		},
	})
}

// dayVote runs the public elimination vote. Ballots are announced; a tie
// eliminates nobody.
func (r *Rules) dayVote(ctx context.Context, ac *engine.Context) error {
	e := ac.Engine
	alive := e.Alive()

	target, ok, err := e.RunVote(ctx, engine.VoteConfig{
		Voters:     alive,
		Candidates: alive,
		RetryOnTie: false,
		Prompts: engine.VotePrompts{
			Start:  r.prompts.Day.VoteStart,
			Prompt: r.prompts.Day.VotePrompt,
			Ballot: r.prompts.Day.VoteBallot,
			Result: r.prompts.Day.VoteResult,
			Tie:    r.prompts.Day.VoteTie,
		},
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return r.resolveDeath(ctx, e, target, CauseVotedOut)
}

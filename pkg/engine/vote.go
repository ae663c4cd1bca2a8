package engine

import (
	"context"
	"fmt"

	"github.com/jwebster45206/ludus/pkg/participant"
)

// VotePrompts are the message templates a vote announces with. Empty
// templates suppress the corresponding announcement.
type VotePrompts struct {
	Start  string // announced once, verbatim
	Prompt string // choose request; formatted with the voter name
	Ballot string // per-ballot announcement; formatted with voter and target
	Result string // winner; formatted with the winning candidate
	Tie    string // tie or all-abstain, verbatim
}

// VoteConfig drives one plurality vote.
type VoteConfig struct {
	Voters     []string
	Candidates []string
	Prompts    VotePrompts

	// AllowSkip offers an abstain option to every voter.
	AllowSkip bool

	// RetryOnTie re-runs the full vote on a tie, modeling a no-confidence
	// revote. Candidates are never eliminated between passes.
	RetryOnTie bool

	// Visibility scopes every announcement; empty means public.
	Visibility []string
}

// RunVote tallies one Choose per voter over the candidate set and returns
// the unique plurality winner. Winners are the candidates whose tally
// equals the maximum and is greater than zero; zero or multiple winners
// is a tie. An all-abstain pass therefore counts as a tie, independent
// of how tallies are initialized. With RetryOnTie unset a tie returns
// ok=false.
//
// These are deliberately simple majority-plurality semantics with an
// explicit tie policy, not ranked choice or instant runoff.
func (e *Engine) RunVote(ctx context.Context, cfg VoteConfig) (winner string, ok bool, err error) {
	if cfg.Prompts.Start != "" {
		e.Announce(cfg.Prompts.Start, cfg.Visibility)
	}

	for {
		tally := make(map[string]int, len(cfg.Candidates))
		for _, c := range cfg.Candidates {
			tally[c] = 0
		}

		for _, name := range cfg.Voters {
			p := e.Player(name)
			if p == nil || !p.Alive {
				continue
			}
			choice, err := p.Participant.Choose(ctx, format(cfg.Prompts.Prompt, name), cfg.Candidates, cfg.AllowSkip)
			if err != nil {
				return "", false, err
			}
			if choice == "" || !containsString(cfg.Candidates, choice) {
				continue // abstain
			}
			tally[choice]++
			if cfg.Prompts.Ballot != "" {
				e.Announce(format(cfg.Prompts.Ballot, name, choice), cfg.Visibility)
			}
		}

		winners := pluralityWinners(cfg.Candidates, tally)
		if len(winners) == 1 {
			if cfg.Prompts.Result != "" {
				e.Announce(format(cfg.Prompts.Result, winners[0]), cfg.Visibility)
			}
			return winners[0], true, nil
		}

		if cfg.Prompts.Tie != "" {
			e.Announce(cfg.Prompts.Tie, cfg.Visibility)
		}
		if !cfg.RetryOnTie {
			return "", false, nil
		}
		if ctx.Err() != nil {
			return "", false, participant.ErrCancelled
		}
	}
}

// pluralityWinners returns every candidate at the maximum tally, provided
// the maximum is positive. Candidate order is preserved so the result is
// independent of map iteration.
func pluralityWinners(candidates []string, tally map[string]int) []string {
	max := 0
	for _, c := range candidates {
		if tally[c] > max {
			max = tally[c]
		}
	}
	if max == 0 {
		return nil
	}
	var winners []string
	for _, c := range candidates {
		if tally[c] == max {
			winners = append(winners, c)
		}
	}
	return winners
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// format applies positional template arguments. Templates are plain
// fmt verbs and must match the argument counts documented on the prompt
// structs.
func format(template string, args ...any) string {
	if template == "" {
		return ""
	}
	return fmt.Sprintf(template, args...)
}

package engine

import "context"

// DefaultReadySentinel ends a participant's involvement in a ready-check
// discussion when returned verbatim from Speak.
const DefaultReadySentinel = "0"

// DiscussionPrompts are the message templates a discussion announces
// with. Empty templates suppress the corresponding announcement.
type DiscussionPrompts struct {
	Start   string // announced once, verbatim
	Speak   string // speak request; formatted with the speaker name
	Speech  string // utterance; formatted with speaker name and text
	Ready   string // progress; formatted with speaker name, ready count, total
	Timeout string // forced termination after the round budget
}

// DiscussionConfig drives one multi-round discussion.
type DiscussionConfig struct {
	Speakers []string
	Prompts  DiscussionPrompts

	// MaxRounds bounds the number of passes over the speaker list.
	MaxRounds int

	// EnableReadyCheck lets a speaker end its participation by returning
	// the ready sentinel; the discussion ends early once everyone is
	// ready.
	EnableReadyCheck bool

	// ReadySentinel defaults to DefaultReadySentinel.
	ReadySentinel string

	// Shuffle reshuffles the speaking order each round.
	Shuffle bool

	// Visibility scopes every announcement; empty means public.
	Visibility []string
}

// RunDiscussion runs rounds of speaking until every speaker is ready or
// the round budget is exhausted. Budget exhaustion with unready speakers
// is a forced proceed, announced via the Timeout template; it is not an
// error. This bounds wall-clock time against participants that never
// converge while still allowing a natural early exit.
func (e *Engine) RunDiscussion(ctx context.Context, cfg DiscussionConfig) error {
	sentinel := cfg.ReadySentinel
	if sentinel == "" {
		sentinel = DefaultReadySentinel
	}
	if cfg.Prompts.Start != "" {
		e.Announce(cfg.Prompts.Start, cfg.Visibility)
	}

	order := append([]string(nil), cfg.Speakers...)
	ready := make(map[string]bool, len(order))

	for round := 0; round < cfg.MaxRounds; round++ {
		if cfg.Shuffle {
			e.rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}
		for _, name := range order {
			if ready[name] {
				continue
			}
			p := e.Player(name)
			if p == nil || !p.Alive {
				continue
			}

			text, err := p.Participant.Speak(ctx, format(cfg.Prompts.Speak, name))
			if err != nil {
				return err
			}

			if cfg.EnableReadyCheck && text == sentinel {
				ready[name] = true
				if cfg.Prompts.Ready != "" {
					e.Announce(format(cfg.Prompts.Ready, name, len(ready), len(order)), cfg.Visibility)
				}
				continue
			}
			if text != "" && cfg.Prompts.Speech != "" {
				e.Announce(format(cfg.Prompts.Speech, name, text), cfg.Visibility)
			}
		}
		if cfg.EnableReadyCheck && len(ready) == len(order) {
			return nil
		}
	}

	if cfg.EnableReadyCheck && len(ready) < len(order) && cfg.Prompts.Timeout != "" {
		e.Announce(format(cfg.Prompts.Timeout, cfg.MaxRounds), cfg.Visibility)
	}
	return nil
}

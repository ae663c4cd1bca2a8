package participant

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/jwebster45206/ludus/pkg/chat"
	"github.com/jwebster45206/ludus/pkg/textfilter"
)

var tableTalkFilter = textfilter.New()

// Automated is an LLM-backed participant. Every request carries the
// participant's persona prompt, its private visible history, and any
// situational reminders, followed by the immediate instruction.
//
// Malformed or failed completions never surface to the engine: Choose
// degrades to a pseudo-random valid option and Speak degrades to silence.
type Automated struct {
	name      string
	persona   string
	completer Completer
	history   HistorySource
	log       *slog.Logger
	rng       *rand.Rand

	mu        sync.Mutex
	reminders []string
	oneTime   []string
}

var _ Participant = (*Automated)(nil)

// AutomatedOption configures an Automated participant.
type AutomatedOption func(*Automated)

// WithReminders sets standing reminders included with every request.
func WithReminders(reminders ...string) AutomatedOption {
	return func(a *Automated) { a.reminders = reminders }
}

// WithOneTimeReminders sets reminders delivered with the first request
// only, e.g. "this is the first night".
func WithOneTimeReminders(reminders ...string) AutomatedOption {
	return func(a *Automated) { a.oneTime = reminders }
}

// WithRand overrides the fallback random source, used by tests and by
// sessions that want reproducible fallback behavior.
func WithRand(rng *rand.Rand) AutomatedOption {
	return func(a *Automated) { a.rng = rng }
}

// NewAutomated creates an automated participant.
func NewAutomated(name, persona string, completer Completer, history HistorySource, log *slog.Logger, opts ...AutomatedOption) *Automated {
	a := &Automated{
		name:      name,
		persona:   persona,
		completer: completer,
		history:   history,
		log:       log,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return a
}

func (a *Automated) Name() string { return a.name }

// Choose sends the instruction with the option list appended and matches
// the reply back against the options by substring. No match, or a backend
// failure, falls back to a random valid option. The fallback is required
// behavior on malformed output, not an error path.
func (a *Automated) Choose(ctx context.Context, prompt string, options []string, allowSkip bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrCancelled
	}

	matchable := options
	if allowSkip {
		matchable = append(append([]string(nil), options...), Skip)
	}

	instruction := fmt.Sprintf("%s\nChoose one of: %s", prompt, strings.Join(matchable, ", "))
	reply, err := a.complete(ctx, instruction)
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		a.log.Warn("completion backend failed, falling back to random choice",
			"participant", a.name, "error", err)
		return options[a.rng.Intn(len(options))], nil
	}

	lower := strings.ToLower(reply)
	for _, opt := range matchable {
		if strings.Contains(lower, strings.ToLower(opt)) {
			return opt, nil
		}
	}

	a.log.Warn("completion did not match any option, falling back to random choice",
		"participant", a.name, "reply_len", len(reply))
	return options[a.rng.Intn(len(options))], nil
}

// Speak sends the instruction and returns the reply, run through the
// table talk filter. A backend failure degrades to silence.
func (a *Automated) Speak(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrCancelled
	}

	reply, err := a.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		a.log.Warn("completion backend failed, participant stays silent",
			"participant", a.name, "error", err)
		return "", nil
	}
	return tableTalkFilter.Clean(strings.TrimSpace(reply)), nil
}

func (a *Automated) complete(ctx context.Context, instruction string) (string, error) {
	messages := a.buildMessages(instruction)
	resp, err := a.completer.GetChatResponse(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (a *Automated) buildMessages(instruction string) []chat.Message {
	a.mu.Lock()
	reminders := append([]string(nil), a.reminders...)
	reminders = append(reminders, a.oneTime...)
	a.oneTime = nil
	a.mu.Unlock()

	var messages []chat.Message
	if a.history != nil {
		if h := a.history.History(a.name); strings.TrimSpace(h) != "" {
			content := "Game record so far:\n" + h
			if len(reminders) > 0 {
				content += "\n" + strings.Join(reminders, "\n")
			}
			messages = append(messages, chat.System(content))
		}
	}
	messages = append(messages, chat.System(a.persona))
	messages = append(messages, chat.User(instruction))
	return messages
}

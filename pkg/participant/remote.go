package participant

import (
	"context"
	"strconv"
	"strings"
)

// Turn kinds published to the transport when a remote participant is
// asked to act.
const (
	TurnChoose = "choose"
	TurnSpeak  = "speak"
)

// Transport is the outbound half of the remote turn exchange. The
// orchestrator implements it by pushing a pending-turn notification to
// whatever client currently represents the identity. It must not block.
type Transport interface {
	RequestTurn(identity string, kind string, prompt string, options []string, allowSkip bool)
}

// Remote is a human participant on the far side of an async transport.
// The engine goroutine is the sole consumer of the inbound channel; the
// transport layer is the sole producer.
type Remote struct {
	name      string
	inbound   <-chan string
	transport Transport
}

var _ Participant = (*Remote)(nil)

// NewRemote creates a remote participant bound to its inbound queue.
func NewRemote(name string, inbound <-chan string, transport Transport) *Remote {
	return &Remote{
		name:      name,
		inbound:   inbound,
		transport: transport,
	}
}

func (r *Remote) Name() string { return r.name }

// Choose publishes the pending turn and blocks for a response. Responses
// are matched loosely (1-based index, exact, then unique substring); an
// unmatched response re-publishes the request rather than failing.
func (r *Remote) Choose(ctx context.Context, prompt string, options []string, allowSkip bool) (string, error) {
	for {
		r.transport.RequestTurn(r.name, TurnChoose, prompt, options, allowSkip)

		text, err := r.receive(ctx)
		if err != nil {
			return "", err
		}
		if choice, ok := matchOption(text, options, allowSkip); ok {
			return choice, nil
		}
	}
}

func (r *Remote) Speak(ctx context.Context, prompt string) (string, error) {
	r.transport.RequestTurn(r.name, TurnSpeak, prompt, nil, false)
	return r.receive(ctx)
}

func (r *Remote) receive(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ErrCancelled
	case text, ok := <-r.inbound:
		if !ok {
			return "", ErrCancelled
		}
		return text, nil
	}
}

// matchOption resolves free text against an option list: 1-based index,
// case-insensitive exact match, then a substring match if it is
// unambiguous.
func matchOption(text string, options []string, allowSkip bool) (string, bool) {
	input := strings.TrimSpace(text)
	lower := strings.ToLower(input)

	if allowSkip && lower == Skip {
		return Skip, true
	}
	if idx, err := strconv.Atoi(input); err == nil && idx >= 1 && idx <= len(options) {
		return options[idx-1], true
	}
	for _, opt := range options {
		if strings.ToLower(opt) == lower {
			return opt, true
		}
	}
	var sub string
	for _, opt := range options {
		if strings.Contains(lower, strings.ToLower(opt)) {
			if sub != "" {
				return "", false // ambiguous
			}
			sub = opt
		}
	}
	if sub != "" {
		return sub, true
	}
	return "", false
}

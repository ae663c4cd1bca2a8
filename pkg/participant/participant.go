// Package participant defines the actors a game engine can address. A
// participant is anything that can pick an option or produce free text:
// a human at the local console, a human on the far side of a transport,
// or an LLM-backed automated player.
package participant

import (
	"context"
	"errors"

	"github.com/jwebster45206/ludus/pkg/chat"
)

// Skip is the reserved answer for an optional choice the participant
// declines to make.
const Skip = "skip"

// ErrCancelled is returned from a blocking call when the session is
// cooperatively stopped. It is a termination signal, not a failure; the
// engine converts it into an orderly halt.
var ErrCancelled = errors.New("participant call cancelled")

// Participant is the capability set the engine addresses players through.
// Both calls block until the participant answers or ctx is cancelled.
// Calls to a single participant are never concurrent; the engine issues
// turn requests strictly in sequence.
type Participant interface {
	// Choose asks the participant to pick one of options. The returned
	// value is always a member of options, or Skip when allowSkip is set.
	Choose(ctx context.Context, prompt string, options []string, allowSkip bool) (string, error)

	// Speak asks the participant for free text. An empty reply is valid
	// and means the participant stays silent.
	Speak(ctx context.Context, prompt string) (string, error)
}

// Completer is the completion backend consumed by automated participants.
// It is satisfied by the LLM services in internal/services.
type Completer interface {
	GetChatResponse(ctx context.Context, messages []chat.Message) (*chat.Response, error)
}

// HistorySource renders the private visible history of one observer as
// text. Satisfied by the event log.
type HistorySource interface {
	History(observer string) string
}

// Package chat defines the message types exchanged with LLM completion
// backends.
package chat

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single message in a completion conversation. The shape
// follows the common chat-completion wire format shared by the supported
// backends.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Response is a completion returned by an LLM backend.
type Response struct {
	Message string `json:"message,omitempty"`
}

// System is shorthand for a system-role message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User is shorthand for a user-role message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

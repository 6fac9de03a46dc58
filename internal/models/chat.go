// internal/models/chat.go
package models

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered message sequence. After normalization the
// system message is always first and there is exactly one.
type Conversation []ChatMessage

// LastUserContent returns the content of the most recent user-authored
// message, or "" when none exists.
func (c Conversation) LastUserContent() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i].Content
		}
	}
	return ""
}

// Normalize returns a copy with the fixed system preamble prepended.
// Caller-supplied system messages are dropped: the persona always wins.
// A nil conversation normalizes to just the preamble.
func (c Conversation) Normalize(systemPrompt string) Conversation {
	out := make(Conversation, 0, len(c)+1)
	out = append(out, ChatMessage{Role: RoleSystem, Content: systemPrompt})
	for _, m := range c {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

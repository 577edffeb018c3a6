package models

// Roles for chat messages
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat turn entry. Messages are immutable once
// created; a conversation is an append-only ordered sequence of them.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// UserMessage creates a user Message
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant Message
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

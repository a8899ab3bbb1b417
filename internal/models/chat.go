package models

import "time"

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of an interactive session.
type ChatMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
}

// NewUserMessage creates a user turn stamped with the current time.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant turn stamped with the current time.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RolePending marks an assistant placeholder whose text is still being
	// revealed. At most one pending message exists per chat, always last.
	RolePending Role = "assistant-pending"
)

// IsAssistant reports whether the role is assistant-authored, pending or settled.
func (r Role) IsAssistant() bool {
	return r == RoleAssistant || r == RolePending
}

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	EditedAt  time.Time `json:"editedAt,omitzero"`

	// ReplyTo links an assistant message to the user message that produced
	// it. Empty on user messages and on data persisted before the field
	// existed; causal operations fall back to adjacency in that case.
	ReplyTo string `json:"replyTo,omitempty"`
}

func NewMessage(role Role, text string) Message {
	return Message{
		ID:        GenerateID(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// GenerateID returns an opaque unique token for chats and messages.
func GenerateID() string {
	return uuid.NewString()
}

package models

import (
	"time"
)

type Chat struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
	Messages    []Message `json:"messages"`
}

// NewChat builds a chat seeded with one assistant greeting message, so a
// chat is never empty once created.
func NewChat(title, greetingText string) *Chat {
	now := time.Now()
	return &Chat{
		ID:          GenerateID(),
		Title:       title,
		CreatedAt:   now,
		LastUpdated: now,
		Messages:    []Message{NewMessage(RoleAssistant, greetingText)},
	}
}

// Touch stamps the chat as updated.
func (c *Chat) Touch() {
	c.LastUpdated = time.Now()
}

// LastMessage returns the final message, or nil for an empty sequence.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// MessageIndex returns the position of a message by id, or -1.
func (c *Chat) MessageIndex(messageID string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// Message returns a message by id, or nil.
func (c *Chat) Message(messageID string) *Message {
	if i := c.MessageIndex(messageID); i >= 0 {
		return &c.Messages[i]
	}
	return nil
}

// HasPending reports whether the chat currently holds a pending
// assistant placeholder.
func (c *Chat) HasPending() bool {
	for i := range c.Messages {
		if c.Messages[i].Role == RolePending {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; the message slice is not shared.
func (c *Chat) Clone() Chat {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return clone
}

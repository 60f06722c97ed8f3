// Package models contains domain models for the IT-ERA chatbot service.
package models

import "time"

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	// RoleUser represents a message from the visitor.
	RoleUser MessageRole = "user"
	// RoleBot represents a message from the assistant.
	RoleBot MessageRole = "bot"
)

// Message source labels, as reported back to the widget.
const (
	SourceAI       = "ai"
	SourceSwarm    = "swarm"
	SourceFallback = "fallback"
)

// Message represents a single turn message in a session transcript.
// Messages are append-only once added to a session.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Intent    string      `json:"intent,omitempty"`
	Options   []string    `json:"options,omitempty"`
	Source    string      `json:"source,omitempty"`
	Cost      float64     `json:"cost,omitempty"`
}

// NewUserMessage creates a new visitor message.
func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewBotMessage creates a new assistant message.
func NewBotMessage(content, intent string, options []string, source string, cost float64) Message {
	return Message{
		Role:      RoleBot,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Intent:    intent,
		Options:   options,
		Source:    source,
		Cost:      cost,
	}
}

// IsUser returns true if this is a visitor message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

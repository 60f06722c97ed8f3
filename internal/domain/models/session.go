package models

import (
	"strings"
	"time"
)

// Step is the conversation step the assistant believes the visitor is in.
type Step string

const (
	StepGreeting         Step = "greeting"
	StepServiceSelection Step = "service_selection"
	StepServiceDetails   Step = "service_details"
	StepBusinessInfo     Step = "business_info"
	StepClarification    Step = "clarification"
	StepEscalation       Step = "escalation"
	StepContinue         Step = "continue"
)

// SessionContext holds the mutable per-conversation state.
type SessionContext struct {
	CurrentStep         Step              `json:"currentStep"`
	MessageCount        int               `json:"messageCount"`
	TotalCost           float64           `json:"totalCost"`
	StartTime           time.Time         `json:"startTime"`
	LastActivity        time.Time         `json:"lastActivity"`
	CurrentIntent       string            `json:"currentIntent,omitempty"`
	LeadData            map[string]string `json:"leadData,omitempty"`
	EscalationRequested bool              `json:"escalationRequested,omitempty"`
}

// Escalation records that the conversation was handed to a human.
type Escalation struct {
	Required  bool      `json:"required"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents a chat conversation persisted in the key-value store.
type Session struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Messages   []Message      `json:"messages"`
	Context    SessionContext `json:"context"`
	Step       Step           `json:"step"`
	Escalation *Escalation    `json:"escalation,omitempty"`
}

// NewSession creates a new session in the greeting step.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
		Context: SessionContext{
			CurrentStep:  StepGreeting,
			StartTime:    now,
			LastActivity: now,
			LeadData:     map[string]string{},
		},
		Step: StepGreeting,
	}
}

// AppendMessage adds a message to the transcript and refreshes activity counters.
func (s *Session) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.Context.MessageCount = len(s.Messages)
	s.Context.LastActivity = msg.Timestamp
	s.Context.TotalCost += msg.Cost
	s.UpdatedAt = msg.Timestamp
}

// UserMessageCount returns how many visitor messages the session holds.
func (s *Session) UserMessageCount() int {
	count := 0
	for _, m := range s.Messages {
		if m.IsUser() {
			count++
		}
	}
	return count
}

// RecentMessages returns at most n trailing messages.
func (s *Session) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Transcript joins every message content with spaces.
func (s *Session) Transcript() string {
	parts := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, " ")
}

// SetStep moves the session to the given step.
func (s *Session) SetStep(step Step) {
	if step == "" || step == StepContinue {
		return
	}
	s.Step = step
	s.Context.CurrentStep = step
}

// Escalate marks the session as escalated. The first escalation wins.
func (s *Session) Escalate(escalationType, priority, reason string) {
	s.Context.EscalationRequested = true
	if s.Escalation != nil {
		return
	}
	s.Escalation = &Escalation{
		Required:  true,
		Type:      escalationType,
		Priority:  priority,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

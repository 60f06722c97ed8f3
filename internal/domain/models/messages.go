package models

import "time"

// ConversationMessage is the archived form of a single transcript message.
// All archived messages share one collection, grouped by SessionID.
type ConversationMessage struct {
	ID        string      `json:"id" bson:"_id"`
	SessionID string      `json:"sessionId" bson:"sessionId"`
	Role      MessageRole `json:"role" bson:"role"`
	Content   string      `json:"content" bson:"content"`
	Intent    string      `json:"intent,omitempty" bson:"intent,omitempty"`
	Source    string      `json:"source,omitempty" bson:"source,omitempty"`
	Arm       string      `json:"arm,omitempty" bson:"arm,omitempty"`
	Cost      float64     `json:"cost,omitempty" bson:"cost,omitempty"`
	LeadScore int         `json:"leadScore,omitempty" bson:"leadScore,omitempty"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
}

// NewConversationMessage creates an archive entry from a transcript message.
func NewConversationMessage(id, sessionID string, msg Message) *ConversationMessage {
	return &ConversationMessage{
		ID:        id,
		SessionID: sessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		Intent:    msg.Intent,
		Source:    msg.Source,
		Cost:      msg.Cost,
		CreatedAt: msg.Timestamp,
	}
}

// LeadRecord is the structured lead assembled when a conversation escalates.
type LeadRecord struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Company   string    `json:"company,omitempty" bson:"company,omitempty"`
	Zone      string    `json:"zone,omitempty" bson:"zone,omitempty"`
	Service   string    `json:"service,omitempty" bson:"service,omitempty"`
	Priority  string    `json:"priority" bson:"priority"`
	Intent    string    `json:"intent" bson:"intent"`
	Message   string    `json:"message" bson:"message"`
	LeadScore int       `json:"leadScore" bson:"leadScore"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// IsEmergency reports whether the lead was raised by an emergency intent.
func (l *LeadRecord) IsEmergency() bool {
	return l.Intent == "emergenza" || l.Priority == "critical"
}

// PerformanceRecord is one per-turn latency/cost sample of an A/B arm.
type PerformanceRecord struct {
	SessionID      string    `json:"sessionId"`
	Mode           string    `json:"mode"`
	ResponseTimeMs int64     `json:"responseTime"`
	Cost           float64   `json:"cost"`
	Timestamp      time.Time `json:"timestamp"`
}

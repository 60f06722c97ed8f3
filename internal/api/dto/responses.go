package dto

import (
	"github.com/itera/chatbot-service/internal/domain/models"
	"github.com/itera/chatbot-service/internal/services/ai"
	"github.com/itera/chatbot-service/internal/services/routing"
	"github.com/itera/chatbot-service/internal/services/swarm"
)

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// ChatResponse is the widget reply for one turn.
type ChatResponse struct {
	Success    bool        `json:"success"`
	SessionID  string      `json:"sessionId"`
	Response   string      `json:"response"`
	Options    []string    `json:"options"`
	Step       models.Step `json:"step,omitempty"`
	Intent     string      `json:"intent,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Escalate   bool        `json:"escalate"`
	Priority   string      `json:"priority,omitempty"`
	Source     string      `json:"source"`
	Cost       float64     `json:"cost"`
	Cached     bool        `json:"cached"`
	UsedAI     bool        `json:"usedAI"`
	LeadScore  int         `json:"leadScore,omitempty"`
}

// AIDiagnosticsResponse describes the configured AI engine.
type AIDiagnosticsResponse struct {
	Enabled   bool          `json:"enabled"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	CostLimit float64       `json:"costLimit"`
	Usage     ai.UsageStats `json:"usage"`
}

// SwarmMetricsResponse reports both A/B arms and the orchestrator counters.
type SwarmMetricsResponse struct {
	ABTesting routing.Metrics `json:"abTesting"`
	Swarm     swarm.Stats     `json:"swarm"`
}

// SwarmAdjustResponse reports the outcome of an automatic traffic adjustment.
type SwarmAdjustResponse struct {
	Adjustment routing.Adjustment `json:"adjustment"`
}

// HistoryResponse is an archived transcript page.
type HistoryResponse struct {
	SessionID string                        `json:"sessionId"`
	Messages  []*models.ConversationMessage `json:"messages"`
	Limit     int64                         `json:"limit"`
	Offset    int64                         `json:"offset"`
}

// LeadsResponse is a page of escalated leads.
type LeadsResponse struct {
	Leads  []*models.LeadRecord `json:"leads"`
	Limit  int64                `json:"limit"`
	Offset int64                `json:"offset"`
}

// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// Chat actions accepted by POST /api/chat.
const (
	ActionStart   = "start"
	ActionMessage = "message"
)

// ChatRequest represents the widget request body.
type ChatRequest struct {
	Action    string `json:"action"`
	Message   string `json:"message,omitempty" binding:"max=2000"`
	SessionID string `json:"sessionId,omitempty" binding:"max=128"`
}

// HistoryQuery represents the query parameters for an archived transcript.
type HistoryQuery struct {
	Limit  int64  `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int64  `form:"offset" binding:"omitempty,min=0"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// LeadsQuery represents the query parameters for listing leads.
type LeadsQuery struct {
	Priority string `form:"priority" binding:"omitempty,oneof=critical high medium"`
	MinScore int    `form:"minScore" binding:"omitempty,min=0,max=100"`
	Limit    int64  `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int64  `form:"offset" binding:"omitempty,min=0"`
}

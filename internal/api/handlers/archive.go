package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itera/chatbot-service/internal/api/dto"
	"github.com/itera/chatbot-service/internal/api/middleware"
	"github.com/itera/chatbot-service/internal/core/docdb"
	domainerrors "github.com/itera/chatbot-service/internal/domain/errors"
	"github.com/itera/chatbot-service/internal/domain/models"
)

const (
	defaultHistoryLimit = 50
	defaultLeadsLimit   = 20
)

// ArchiveHandler serves archived transcripts and leads.
type ArchiveHandler struct {
	docDBClient docdb.Client
}

// NewArchiveHandler creates a new ArchiveHandler. docDBClient is nil when the archive is disabled.
func NewArchiveHandler(docDBClient docdb.Client) *ArchiveHandler {
	return &ArchiveHandler{docDBClient: docDBClient}
}

// GetHistory handles GET /api/sessions/{sessionId}/messages
// @Summary Archived transcript
// @Description Retrieves the archived messages of a session, oldest first by default
// @Tags Archive
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param limit query int false "Maximum number of messages" default(50) minimum(1) maximum(200)
// @Param offset query int false "Offset for pagination" default(0) minimum(0)
// @Param order query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} dto.HistoryResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse "Archive disabled"
// @Router /api/sessions/{sessionId}/messages [get]
func (h *ArchiveHandler) GetHistory(c *gin.Context) {
	if h.docDBClient == nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("archive", nil))
		return
	}

	sessionID := c.Param("sessionId")
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultHistoryLimit
	}

	messages, err := h.docDBClient.Conversations().ListBySession(c.Request.Context(), &docdb.ListMessagesOptions{
		SessionID: sessionID,
		Limit:     query.Limit,
		Skip:      query.Offset,
		OrderBy:   docdb.SortOrder(query.Order),
	})
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to list messages", err))
		return
	}
	if len(messages) == 0 {
		middleware.HandleError(c, domainerrors.NewNotFoundError("session", sessionID))
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
}

// ListLeads handles GET /api/leads
// @Summary Escalated leads
// @Description Lists escalated leads, newest first
// @Tags Archive
// @Produce json
// @Param priority query string false "Priority filter" Enums(critical, high, medium)
// @Param minScore query int false "Minimum lead score" minimum(0) maximum(100)
// @Param limit query int false "Maximum number of leads" default(20) minimum(1) maximum(100)
// @Param offset query int false "Offset for pagination" default(0) minimum(0)
// @Success 200 {object} dto.LeadsResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse "Archive disabled"
// @Router /api/leads [get]
func (h *ArchiveHandler) ListLeads(c *gin.Context) {
	if h.docDBClient == nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("archive", nil))
		return
	}

	var query dto.LeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultLeadsLimit
	}

	leads, err := h.docDBClient.Leads().List(c.Request.Context(), &docdb.ListLeadsOptions{
		Priority: query.Priority,
		MinScore: query.MinScore,
		Limit:    query.Limit,
		Skip:     query.Offset,
	})
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to list leads", err))
		return
	}
	if leads == nil {
		leads = []*models.LeadRecord{}
	}

	c.JSON(http.StatusOK, dto.LeadsResponse{
		Leads:  leads,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

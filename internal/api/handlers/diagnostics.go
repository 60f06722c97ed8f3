package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itera/chatbot-service/internal/api/dto"
	"github.com/itera/chatbot-service/internal/api/middleware"
	domainerrors "github.com/itera/chatbot-service/internal/domain/errors"
	"github.com/itera/chatbot-service/internal/services/ai"
)

// AIEngine exposes engine configuration and usage counters.
type AIEngine interface {
	ProviderName() string
	Model() string
	CostLimit() float64
	UsageStats() ai.UsageStats
	ResetUsage(ctx context.Context) error
}

// DiagnosticsHandler reports on the AI engine.
type DiagnosticsHandler struct {
	engine AIEngine
}

// NewDiagnosticsHandler creates a new DiagnosticsHandler. engine is nil when AI is disabled.
func NewDiagnosticsHandler(engine AIEngine) *DiagnosticsHandler {
	return &DiagnosticsHandler{engine: engine}
}

// AIDiagnostics handles GET /api/ai-diagnostics
// @Summary AI diagnostics
// @Description Returns provider, model, cost ceiling and usage counters
// @Tags Diagnostics
// @Produce json
// @Success 200 {object} dto.AIDiagnosticsResponse
// @Failure 503 {object} middleware.ErrorResponse "AI disabled"
// @Router /api/ai-diagnostics [get]
func (h *DiagnosticsHandler) AIDiagnostics(c *gin.Context) {
	if h.engine == nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("AI engine", nil))
		return
	}

	c.JSON(http.StatusOK, dto.AIDiagnosticsResponse{
		Enabled:   true,
		Provider:  h.engine.ProviderName(),
		Model:     h.engine.Model(),
		CostLimit: h.engine.CostLimit(),
		Usage:     h.engine.UsageStats(),
	})
}

// ResetUsage handles POST /api/ai-diagnostics/reset
// @Summary Reset AI usage
// @Description Clears the cost ledgers, the session rate windows and the usage counters
// @Tags Diagnostics
// @Produce json
// @Success 204 "Usage reset"
// @Failure 500 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse "AI disabled"
// @Router /api/ai-diagnostics/reset [post]
func (h *DiagnosticsHandler) ResetUsage(c *gin.Context) {
	if h.engine == nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("AI engine", nil))
		return
	}

	if err := h.engine.ResetUsage(c.Request.Context()); err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to reset usage", err))
		return
	}

	c.Status(http.StatusNoContent)
}

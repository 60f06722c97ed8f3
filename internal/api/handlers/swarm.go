package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/api/dto"
	"github.com/itera/chatbot-service/internal/api/middleware"
	domainerrors "github.com/itera/chatbot-service/internal/domain/errors"
	"github.com/itera/chatbot-service/internal/services/routing"
	"github.com/itera/chatbot-service/internal/services/swarm"
)

// ABRouter exposes the A/B arm metrics.
type ABRouter interface {
	Metrics() routing.Metrics
	AdjustSwarmPercentage() routing.Adjustment
}

// SwarmStats exposes the orchestrator counters.
type SwarmStats interface {
	Stats() swarm.Stats
}

// SwarmHandler handles swarm monitoring endpoints.
type SwarmHandler struct {
	router       ABRouter
	orchestrator SwarmStats
}

// NewSwarmHandler creates a new SwarmHandler. Both are nil when the swarm is disabled.
func NewSwarmHandler(router ABRouter, orchestrator SwarmStats) *SwarmHandler {
	return &SwarmHandler{
		router:       router,
		orchestrator: orchestrator,
	}
}

// Metrics handles GET /api/swarm/metrics
// @Summary Swarm metrics
// @Description Returns per-arm A/B metrics, the arm comparison and orchestrator counters
// @Tags Swarm
// @Produce json
// @Success 200 {object} dto.SwarmMetricsResponse
// @Failure 503 {object} middleware.ErrorResponse "Swarm disabled"
// @Router /api/swarm/metrics [get]
func (h *SwarmHandler) Metrics(c *gin.Context) {
	if h.router == nil || h.orchestrator == nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("swarm", nil))
		return
	}

	c.JSON(http.StatusOK, dto.SwarmMetricsResponse{
		ABTesting: h.router.Metrics(),
		Swarm:     h.orchestrator.Stats(),
	})
}

// Adjust handles POST /api/swarm/adjust
// @Summary Adjust swarm traffic
// @Description Applies the arm comparison recommendation to the swarm traffic share
// @Tags Swarm
// @Produce json
// @Success 200 {object} dto.SwarmAdjustResponse
// @Failure 503 {object} middleware.ErrorResponse "Swarm disabled"
// @Router /api/swarm/adjust [post]
func (h *SwarmHandler) Adjust(c *gin.Context) {
	if h.router == nil {
		middleware.HandleError(c, domainerrors.NewServiceUnavailableError("swarm", nil))
		return
	}

	adj := h.router.AdjustSwarmPercentage()
	log.Info().
		Int("previous", adj.Previous).
		Int("current", adj.Current).
		Str("recommendation", adj.Recommendation).
		Msg("swarm traffic adjusted")

	c.JSON(http.StatusOK, dto.SwarmAdjustResponse{Adjustment: adj})
}

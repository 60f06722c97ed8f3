// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itera/chatbot-service/internal/api/dto"
	"github.com/itera/chatbot-service/internal/core/cache"
	"github.com/itera/chatbot-service/internal/core/docdb"
	"github.com/itera/chatbot-service/internal/core/guardrail"
)

const pingTimeout = 2 * time.Second

// dependency is one backend reported by the health endpoints. Required
// dependencies gate readiness; the others only show up in /health.
type dependency struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

// HealthHandler serves the health, readiness and liveness checks.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler creates a new HealthHandler. docDBClient is nil when the archive is disabled.
func NewHealthHandler(cacheClient cache.Client, guardrailStore guardrail.Store, docDBClient docdb.Client) *HealthHandler {
	h := &HealthHandler{}
	if cacheClient != nil {
		h.deps = append(h.deps, dependency{name: "cache", required: true, ping: cacheClient.Ping})
	}
	if guardrailStore != nil {
		h.deps = append(h.deps, dependency{name: "guardrails", required: true, ping: guardrailStore.Ping})
	}
	if docDBClient != nil {
		h.deps = append(h.deps, dependency{name: "docdb", ping: docDBClient.Ping})
	}
	return h
}

func pingDependency(ctx context.Context, d dependency) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.ping(ctx)
}

// Health handles the /health endpoint.
// @Summary Health check
// @Description Reports every backend; any failure, the archive included, makes the service unhealthy
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service healthy"
// @Failure 503 {object} dto.HealthResponse "Service unhealthy"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:     "healthy",
		Components: map[string]string{"docdb": "disabled"},
	}
	code := http.StatusOK

	for _, d := range h.deps {
		if err := pingDependency(c.Request.Context(), d); err != nil {
			resp.Components[d.name] = "unhealthy"
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Components[d.name] = "healthy"
	}

	c.JSON(code, resp)
}

// Ready handles the /ready endpoint.
// @Summary Readiness check
// @Description Returns 200 once the session cache and the guardrail store answer
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service ready"
// @Failure 503 {object} map[string]string "Service not ready"
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	for _, d := range h.deps {
		if !d.required {
			continue
		}
		if err := pingDependency(c.Request.Context(), d); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": d.name + " unavailable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Live handles the /live endpoint.
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service alive"
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

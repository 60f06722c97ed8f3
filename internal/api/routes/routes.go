// Package routes defines the HTTP routes for the IT-ERA chatbot service.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/itera/chatbot-service/internal/api/handlers"
	"github.com/itera/chatbot-service/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler      *handlers.HealthHandler
	ChatHandler        *handlers.ChatHandler
	DiagnosticsHandler *handlers.DiagnosticsHandler
	SwarmHandler       *handlers.SwarmHandler
	ArchiveHandler     *handlers.ArchiveHandler
	// AuthMiddleware guards operator routes. Nil leaves them unregistered.
	AuthMiddleware *middleware.AuthMiddleware
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// Health check routes
	r.GET("/health", cfg.HealthHandler.Health)
	r.GET("/ready", cfg.HealthHandler.Ready)
	r.GET("/live", cfg.HealthHandler.Live)

	api := r.Group("/api")
	{
		// Widget endpoint (public)
		api.POST("/chat", cfg.ChatHandler.Chat)

		// Read-only monitoring
		api.GET("/ai-diagnostics", cfg.DiagnosticsHandler.AIDiagnostics)
		api.GET("/swarm/metrics", cfg.SwarmHandler.Metrics)

		if cfg.AuthMiddleware == nil {
			return
		}

		// Operator routes
		operator := api.Group("")
		operator.Use(cfg.AuthMiddleware.Authenticate())
		{
			operator.POST("/swarm/adjust", cfg.SwarmHandler.Adjust)
			operator.POST("/ai-diagnostics/reset", cfg.DiagnosticsHandler.ResetUsage)
			operator.GET("/sessions/:sessionId/messages", cfg.ArchiveHandler.GetHistory)
			operator.GET("/leads", cfg.ArchiveHandler.ListLeads)
		}
	}
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware, corsCfg middleware.CORSConfig) {
	// Apply global middleware
	r.Use(loggingMw.RequestLogger())
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(middleware.NewCORSMiddleware(corsCfg))

	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())

	// Setup routes
	Setup(r, cfg)
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sessionIDKey    = "session_id"

	maxRequestIDLength = 64
)

// healthPaths are logged at debug level; orchestrators poll them every few seconds.
var healthPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
	"/live":   true,
}

// LoggingMiddleware handles request logging.
type LoggingMiddleware struct {
	logger zerolog.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware on the global logger.
func NewLoggingMiddleware() *LoggingMiddleware {
	return NewLoggingMiddlewareWithLogger(log.Logger)
}

// NewLoggingMiddlewareWithLogger creates a new LoggingMiddleware with a custom logger.
func NewLoggingMiddlewareWithLogger(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// Logger returns a gin middleware that logs one line per completed request.
func (m *LoggingMiddleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = m.logger.Error()
		case status >= 400:
			event = m.logger.Warn()
		case healthPaths[c.Request.URL.Path]:
			event = m.logger.Debug()
		default:
			event = m.logger.Info()
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size())
		if sessionID := c.GetString(sessionIDKey); sessionID != "" {
			event.Str("session_id", sessionID)
		}
		event.Msg("request completed")
	}
}

// RequestLogger assigns a request ID and attaches a request-scoped logger to the request context.
func (m *LoggingMiddleware) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		requestLogger := m.logger.With().
			Str("request_id", requestID).
			Logger()
		c.Request = c.Request.WithContext(requestLogger.WithContext(c.Request.Context()))

		c.Next()
	}
}

// GetRequestLogger returns the request-scoped logger, or the global one.
func GetRequestLogger(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// SetSessionID tags the request log line with the chat session.
func SetSessionID(c *gin.Context, sessionID string) {
	c.Set(sessionIDKey, sessionID)
}

// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/itera/chatbot-service/internal/domain/errors"
)

// internalErrorMessage is the only text a visitor sees for unexpected failures.
const internalErrorMessage = "Errore interno del server"

// ErrorResponse is the JSON body of every failed request. Success is always
// false; the chat widget shows Error to the visitor.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorMiddleware turns panics into the standard error body.
type ErrorMiddleware struct{}

// NewErrorMiddleware creates a new ErrorMiddleware.
func NewErrorMiddleware() *ErrorMiddleware {
	return &ErrorMiddleware{}
}

// Recovery aborts with a 500 when a handler panics.
func (m *ErrorMiddleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				GetRequestLogger(c).Error().
					Interface("panic", rec).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Msg("handler panicked")
				abortInternal(c)
			}
		}()
		c.Next()
	}
}

// HandleError writes err as an ErrorResponse. Domain errors keep their status,
// code and message; anything else becomes an opaque 500.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	domainErr, ok := domainerrors.GetDomainError(err)
	if !ok {
		GetRequestLogger(c).Error().Err(err).Msg("unhandled error")
		abortInternal(c)
		return
	}

	if domainErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(domainErr.RetryAfter.Seconds())))
	}
	if domainErr.HTTPStatus >= http.StatusInternalServerError && domainErr.Err != nil {
		GetRequestLogger(c).Error().Err(domainErr.Err).Str("code", domainErr.Code).Msg(domainErr.Message)
	}

	c.AbortWithStatusJSON(domainErr.HTTPStatus, ErrorResponse{
		Code:    domainErr.Code,
		Error:   domainErr.Message,
		Details: domainErr.Details,
	})
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Code:  domainerrors.ErrCodeInternal,
		Error: internalErrorMessage,
	})
}

// NotFound answers unknown routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    domainerrors.ErrCodeNotFound,
			Error:   "Risorsa non trovata",
			Details: c.Request.URL.Path,
		})
	}
}

// MethodNotAllowed answers known routes called with the wrong verb.
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
			Code:    "METHOD_NOT_ALLOWED",
			Error:   "Metodo non consentito",
			Details: c.Request.Method,
		})
	}
}

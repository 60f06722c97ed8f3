// Package errors provides the domain error type mapped onto HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidAction      = "INVALID_ACTION"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// DomainError carries the code, the client-facing message and the HTTP status of a failure.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	// RetryAfter is sent as the Retry-After header when positive.
	RetryAfter time.Duration `json:"-"`
	Err        error         `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidActionError is returned for chat requests with an unknown action or a missing message.
// The message is user-facing and shown verbatim by the widget.
func NewInvalidActionError(details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeInvalidAction,
		Message:    "Azione non valida",
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewRateLimitedError creates a rate limit error; retryAfter may be zero.
func NewRateLimitedError(message string, retryAfter time.Duration) *DomainError {
	return &DomainError{
		Code:       ErrCodeRateLimited,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

// NewUnauthorizedError is returned for operator requests without a valid key.
func NewUnauthorizedError(details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeUnauthorized,
		Message:    "unauthorized",
		Details:    details,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewServiceUnavailableError is returned when an optional component is disabled or down.
func NewServiceUnavailableError(service string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeServiceUnavailable,
		Message:    fmt.Sprintf("%s is unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// GetDomainError extracts the domain error from an error chain.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

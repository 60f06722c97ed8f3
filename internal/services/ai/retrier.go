package ai

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAIUnavailable is returned when every attempt failed or timed out.
var ErrAIUnavailable = errors.New("AI engine unavailable")

// Retrier defaults.
const (
	DefaultMaxAttempts    = 2
	DefaultAttemptTimeout = 8 * time.Second
)

// RetrierConfig holds the retry policy.
type RetrierConfig struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	// Backoff returns the wait after a failed attempt (1-based). Defaults to 2^attempt seconds.
	Backoff func(attempt int) time.Duration
}

// Retrier bounds each engine call with a deadline and retries failed attempts.
type Retrier struct {
	engine         Generator
	maxAttempts    int
	attemptTimeout time.Duration
	backoff        func(attempt int) time.Duration
}

// NewRetrier creates a retrier around engine.
func NewRetrier(engine Generator, cfg RetrierConfig) *Retrier {
	r := &Retrier{
		engine:         engine,
		maxAttempts:    cfg.MaxAttempts,
		attemptTimeout: cfg.AttemptTimeout,
		backoff:        cfg.Backoff,
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultMaxAttempts
	}
	if r.attemptTimeout <= 0 {
		r.attemptTimeout = DefaultAttemptTimeout
	}
	if r.backoff == nil {
		r.backoff = ExponentialBackoff
	}
	return r
}

// ExponentialBackoff waits 2^attempt seconds.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// Generate returns the first successful reply. An ai_error reply or an expired
// attempt deadline counts as a failure, except that a reply already charged to
// the session is kept. Guardrail replies are returned as-is.
func (r *Retrier) Generate(ctx context.Context, message string, cc ConversationContext, sessionID string) (*Response, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		resp := r.engine.GenerateResponse(attemptCtx, message, cc, sessionID)
		timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		cancel()

		if resp != nil && resp.Intent != IntentAIError && (!timedOut || resp.Cost > 0) {
			return resp, nil
		}

		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", r.maxAttempts).
			Bool("timed_out", timedOut).
			Str("session_id", sessionID).
			Msg("AI attempt failed")

		if attempt < r.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ErrAIUnavailable
			case <-time.After(r.backoff(attempt)):
			}
		}
	}
	return nil, ErrAIUnavailable
}

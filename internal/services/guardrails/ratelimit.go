// Package guardrails implements the pre-call checks that protect the paid AI call:
// rate limits, the per-session cost ledger and the response cache.
package guardrails

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/core/guardrail"
)

// Scope identifies what a rate limit window is keyed by.
type Scope string

const (
	// ScopeSession limits AI calls per chat session.
	ScopeSession Scope = "session"
	// ScopeIP limits inbound messages per client IP.
	ScopeIP Scope = "ip"
)

// Limit is a fixed window: at most Max events per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Default limits.
var (
	DefaultSessionLimit = Limit{Max: 10, Window: time.Minute}
	DefaultIPLimit      = Limit{Max: 60, Window: time.Hour}
)

// RateLimiter enforces per-scope fixed windows over a guardrail.Store.
type RateLimiter struct {
	store  guardrail.Store
	limits map[Scope]Limit
}

// NewRateLimiter creates a rate limiter. Missing scopes use the defaults.
func NewRateLimiter(store guardrail.Store, limits map[Scope]Limit) *RateLimiter {
	merged := map[Scope]Limit{
		ScopeSession: DefaultSessionLimit,
		ScopeIP:      DefaultIPLimit,
	}
	for scope, limit := range limits {
		if limit.Max > 0 && limit.Window > 0 {
			merged[scope] = limit
		}
	}
	return &RateLimiter{store: store, limits: merged}
}

// Allow counts one event for id and reports whether it is within the limit.
// The counter is incremented before the decision, so rejected and timed-out
// calls still count against the window. Store failures fail open.
func (r *RateLimiter) Allow(ctx context.Context, scope Scope, id string) bool {
	limit, ok := r.limits[scope]
	if !ok {
		return true
	}

	count, err := r.store.Increment(ctx, rateKey(scope, id), 1, limit.Window)
	if err != nil {
		log.Warn().Err(err).Str("scope", string(scope)).Str("id", id).Msg("rate limit store failed, allowing request")
		return true
	}
	return count <= float64(limit.Max)
}

// Limit returns the configured limit for scope.
func (r *RateLimiter) Limit(scope Scope) Limit {
	return r.limits[scope]
}

// Reset clears every window of the given scope.
func (r *RateLimiter) Reset(ctx context.Context, scope Scope) (int64, error) {
	removed, err := r.store.Reset(ctx, fmt.Sprintf("rate:%s:", scope))
	if err != nil {
		return 0, fmt.Errorf("failed to reset %s rate windows: %w", scope, err)
	}
	return removed, nil
}

func rateKey(scope Scope, id string) string {
	return fmt.Sprintf("rate:%s:%s", scope, id)
}

package guardrails

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/core/guardrail"
)

const ledgerPrefix = "cost:"

// CostLedger tracks the accumulated AI spend per session. With a ttl the entry
// lives as long as the session it belongs to: every charge pushes the expiry
// forward. Reset clears all entries at once.
type CostLedger struct {
	store guardrail.Store
	ttl   time.Duration
}

// NewCostLedger creates a ledger over store. A ttl of 0 keeps entries until Reset.
func NewCostLedger(store guardrail.Store, ttl time.Duration) *CostLedger {
	return &CostLedger{store: store, ttl: ttl}
}

// Total returns the spend recorded for the session.
func (l *CostLedger) Total(ctx context.Context, sessionID string) (float64, error) {
	total, err := l.store.Get(ctx, ledgerPrefix+sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to read cost ledger: %w", err)
	}
	return total, nil
}

// Add records amount against the session and returns the new total.
func (l *CostLedger) Add(ctx context.Context, sessionID string, amount float64) (float64, error) {
	if amount <= 0 {
		return l.Total(ctx, sessionID)
	}

	key := ledgerPrefix + sessionID
	total, err := l.store.Increment(ctx, key, amount, l.ttl)
	if err != nil {
		return 0, fmt.Errorf("failed to update cost ledger: %w", err)
	}

	// Increment only sets the ttl on a new key
	if l.ttl > 0 {
		if err := l.store.Expire(ctx, key, l.ttl); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to extend cost ledger ttl")
		}
	}
	return total, nil
}

// Reset clears every session total.
func (l *CostLedger) Reset(ctx context.Context) (int64, error) {
	removed, err := l.store.Reset(ctx, ledgerPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to reset cost ledger: %w", err)
	}
	return removed, nil
}

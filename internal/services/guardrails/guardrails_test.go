package guardrails_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	memcache "github.com/itera/chatbot-service/internal/infrastructure/cache/memory"
	"github.com/itera/chatbot-service/internal/infrastructure/guardrail/memory"
	"github.com/itera/chatbot-service/internal/services/guardrails"
	"github.com/itera/chatbot-service/internal/testutil"
)

func TestRateLimiter_RejectsAfterLimit(t *testing.T) {
	// Arrange
	limiter := guardrails.NewRateLimiter(memory.NewStore(), map[guardrails.Scope]guardrails.Limit{
		guardrails.ScopeSession: {Max: 3, Window: time.Minute},
	})
	ctx := context.Background()

	// Act
	results := make([]bool, 0, 4)
	for i := 0; i < 4; i++ {
		results = append(results, limiter.Allow(ctx, guardrails.ScopeSession, "s1"))
	}

	// Assert
	assert.Equal(t, []bool{true, true, true, false}, results)
	assert.True(t, limiter.Allow(ctx, guardrails.ScopeSession, "s2"))
}

func TestRateLimiter_WindowResets(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewStoreWithClock(func() time.Time { return now })
	limiter := guardrails.NewRateLimiter(store, map[guardrails.Scope]guardrails.Limit{
		guardrails.ScopeIP: {Max: 1, Window: time.Hour},
	})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, guardrails.ScopeIP, "1.2.3.4"))
	assert.False(t, limiter.Allow(ctx, guardrails.ScopeIP, "1.2.3.4"))

	now = now.Add(time.Hour + time.Second)

	assert.True(t, limiter.Allow(ctx, guardrails.ScopeIP, "1.2.3.4"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	store := &testutil.MockGuardrailStore{}
	store.On("Increment", mock.Anything, "rate:session:s1", 1.0, time.Minute).
		Return(0.0, errors.New("connection refused"))
	limiter := guardrails.NewRateLimiter(store, nil)

	assert.True(t, limiter.Allow(context.Background(), guardrails.ScopeSession, "s1"))
	store.AssertExpectations(t)
}

func TestRateLimiter_DefaultLimits(t *testing.T) {
	limiter := guardrails.NewRateLimiter(memory.NewStore(), nil)

	assert.Equal(t, guardrails.DefaultSessionLimit, limiter.Limit(guardrails.ScopeSession))
	assert.Equal(t, guardrails.DefaultIPLimit, limiter.Limit(guardrails.ScopeIP))
}

func TestCostLedger_AddAndReset(t *testing.T) {
	// Arrange
	ledger := guardrails.NewCostLedger(memory.NewStore(), 0)
	ctx := context.Background()

	// Act
	_, err := ledger.Add(ctx, "s1", 0.0225)
	require.NoError(t, err)
	total, err := ledger.Add(ctx, "s1", 0.03)
	require.NoError(t, err)
	unchanged, err := ledger.Add(ctx, "s1", 0)
	require.NoError(t, err)

	// Assert
	assert.InDelta(t, 0.0525, total, 1e-9)
	assert.InDelta(t, 0.0525, unchanged, 1e-9)

	removed, err := ledger.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	after, _ := ledger.Total(ctx, "s1")
	assert.Zero(t, after)
}

func TestCostLedger_TTLFollowsLastCharge(t *testing.T) {
	// Arrange
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ledger := guardrails.NewCostLedger(memory.NewStoreWithClock(func() time.Time { return now }), time.Hour)
	ctx := context.Background()

	// Act
	_, err := ledger.Add(ctx, "s1", 0.01)
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)
	_, err = ledger.Add(ctx, "s1", 0.01)
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)
	stillOpen, _ := ledger.Total(ctx, "s1")
	now = now.Add(31 * time.Minute)
	expired, _ := ledger.Total(ctx, "s1")

	// Assert
	assert.InDelta(t, 0.02, stillOpen, 1e-9)
	assert.Zero(t, expired)
}

func TestCostLedger_ExpireFailureKeepsCharge(t *testing.T) {
	store := &testutil.MockGuardrailStore{}
	store.On("Increment", mock.Anything, "cost:s1", 0.01, time.Hour).Return(0.01, nil)
	store.On("Expire", mock.Anything, "cost:s1", time.Hour).Return(errors.New("connection reset"))
	ledger := guardrails.NewCostLedger(store, time.Hour)

	total, err := ledger.Add(context.Background(), "s1", 0.01)

	require.NoError(t, err)
	assert.Equal(t, 0.01, total)
	store.AssertExpectations(t)
}

func TestKey_Normalization(t *testing.T) {
	assert.Equal(t, "aicache:ciao come va_default", guardrails.Key("  Ciao, come va?! ", ""))
	assert.Equal(t, "aicache:ciao_greeting", guardrails.Key("CIAO!", "greeting"))
}

func TestResponseCache_RoundTrip(t *testing.T) {
	// Arrange
	rc := guardrails.NewResponseCache(memcache.NewCache(time.Hour), time.Hour)
	ctx := context.Background()
	entry := guardrails.CachedResponse{
		Message: "Ciao! Sono Mark, l'assistente di IT-ERA.",
		Intent:  "saluto",
		Options: []string{"Preventivo"},
	}

	// Act
	require.NoError(t, rc.Put(ctx, "Ciao!", "greeting", entry))
	got, err := rc.Get(ctx, "ciao", "greeting")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Message, got.Message)
	assert.Equal(t, "saluto", got.Intent)

	miss, err := rc.Get(ctx, "ciao", "business_info")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestResponseCache_StaleEntryIsAbsent(t *testing.T) {
	rc := guardrails.NewResponseCache(memcache.NewCache(24*time.Hour), time.Hour)
	ctx := context.Background()

	require.NoError(t, rc.Put(ctx, "ciao", "", guardrails.CachedResponse{
		Message:  "vecchia risposta",
		CachedAt: time.Now().Add(-2 * time.Hour),
	}))

	got, err := rc.Get(ctx, "ciao", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

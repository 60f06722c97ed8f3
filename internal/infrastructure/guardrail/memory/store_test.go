package memory_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itera/chatbot-service/internal/core/guardrail"
	"github.com/itera/chatbot-service/internal/infrastructure/guardrail/memory"
)

var _ guardrail.Store = (*memory.Store)(nil)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_IncrementAndGet(t *testing.T) {
	// Arrange
	store := memory.NewStore()
	ctx := context.Background()

	// Act
	first, err := store.Increment(ctx, "cost:abc", 0.015, 0)
	require.NoError(t, err)
	second, err := store.Increment(ctx, "cost:abc", 0.02, 0)
	require.NoError(t, err)
	value, err := store.Get(ctx, "cost:abc")
	require.NoError(t, err)

	// Assert
	assert.InDelta(t, 0.015, first, 1e-9)
	assert.InDelta(t, 0.035, second, 1e-9)
	assert.InDelta(t, 0.035, value, 1e-9)
}

func TestStore_GetMissing(t *testing.T) {
	store := memory.NewStore()

	value, err := store.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Zero(t, value)
}

func TestStore_WindowExpires(t *testing.T) {
	// Arrange
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStoreWithClock(clock.Now)
	ctx := context.Background()

	_, _ = store.Increment(ctx, "rate:s1", 1, time.Minute)
	clock.Advance(30 * time.Second)
	count, _ := store.Increment(ctx, "rate:s1", 1, time.Minute)
	assert.Equal(t, 2.0, count)

	// Act
	clock.Advance(31 * time.Second)
	afterWindow, err := store.Get(ctx, "rate:s1")
	require.NoError(t, err)
	restarted, err := store.Increment(ctx, "rate:s1", 1, time.Minute)
	require.NoError(t, err)

	// Assert
	assert.Zero(t, afterWindow)
	assert.Equal(t, 1.0, restarted)
}

func TestStore_ExistingKeyKeepsExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStoreWithClock(clock.Now)
	ctx := context.Background()

	_, _ = store.Increment(ctx, "k", 1, time.Minute)
	clock.Advance(50 * time.Second)
	_, _ = store.Increment(ctx, "k", 1, time.Hour)
	clock.Advance(11 * time.Second)

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, value)
}

func TestStore_Reset(t *testing.T) {
	// Arrange
	store := memory.NewStore()
	ctx := context.Background()
	_, _ = store.Increment(ctx, "cost:a", 0.1, 0)
	_, _ = store.Increment(ctx, "cost:b", 0.1, 0)
	_, _ = store.Increment(ctx, "rate:a", 1, time.Minute)

	// Act
	removed, err := store.Reset(ctx, "cost:")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	remaining, _ := store.Get(ctx, "rate:a")
	assert.Equal(t, 1.0, remaining)
}

func TestStore_ConcurrentIncrements(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Increment(ctx, "rate:concurrent", 1, time.Minute)
		}()
	}
	wg.Wait()

	value, err := store.Get(ctx, "rate:concurrent")
	require.NoError(t, err)
	assert.Equal(t, 50.0, value)
}

func TestStore_SweepDropsExpiredCounters(t *testing.T) {
	// Arrange
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStoreWithClock(clock.Now)
	ctx := context.Background()
	for i := 0; i < 10000; i++ {
		_, err := store.Increment(ctx, "rate:session:"+strconv.Itoa(i), 1, time.Minute)
		require.NoError(t, err)
	}
	_, _ = store.Increment(ctx, "cost:chat_1", 0.02, 0)

	// Act
	clock.Advance(24 * time.Hour)
	_, _ = store.Increment(ctx, "rate:session:fresh", 1, time.Minute)
	removed := store.Sweep()

	// Assert
	assert.Equal(t, 10000, removed)
	assert.Equal(t, 2, store.Len())
	total, err := store.Get(ctx, "cost:chat_1")
	require.NoError(t, err)
	assert.Equal(t, 0.02, total)
}

func TestStore_BackgroundSweep(t *testing.T) {
	store := memory.NewStoreWithSweep(5 * time.Millisecond)
	defer store.Close()

	_, err := store.Increment(context.Background(), "rate:ip:10.0.0.1", 1, 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStore_CloseTwice(t *testing.T) {
	store := memory.NewStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

// Package guardrail defines the counter store behind rate limits and cost ledgers.
package guardrail

import (
	"context"
	"time"
)

// Store holds expiring numeric counters keyed by string.
// Implementations must make Increment atomic per key.
type Store interface {
	// Increment adds delta to the counter at key and returns the new value.
	// When the key is new (or expired) the ttl is applied; existing keys keep their expiry.
	// A ttl of 0 means the key never expires.
	Increment(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error)

	// Get returns the current counter value, or 0 if the key does not exist.
	Get(ctx context.Context, key string) (float64, error)

	// Expire resets the ttl of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Reset removes every key starting with prefix and returns the number removed.
	Reset(ctx context.Context, prefix string) (int64, error)

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store resources.
	Close() error
}

// Type represents the type of guardrail store.
type Type string

const (
	// TypeMemory keeps counters in process memory.
	TypeMemory Type = "memory"
	// TypeRedis keeps counters in Redis, shared across instances.
	TypeRedis Type = "redis"
)

// Package cache defines the key/value cache behind sessions, AI replies,
// customer profiles and A/B performance samples.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Type selects a cache backend.
type Type string

const (
	TypeRedis  Type = "redis"
	TypeMemory Type = "memory" // per process, sessions do not survive restarts
)

// ParseType normalizes a configured backend name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeRedis, TypeMemory:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported cache type: %q", s)
	}
}

// Key namespaces. Every writer sharing a cache uses these so patterns stay disjoint.
const (
	NamespaceSession     = "session"
	NamespaceAIResponse  = "aicache"
	NamespaceProfile     = "profile"
	NamespacePerformance = "perf"
)

// Client defines the interface for cache operations.
type Client interface {
	// Get retrieves a value by key. Returns nil if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A ttl of 0 uses the client default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePattern removes all keys matching a glob pattern and returns the count.
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Ping checks if the cache connection is alive.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// Key joins a namespace and its parts with ":".
func Key(namespace string, parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}

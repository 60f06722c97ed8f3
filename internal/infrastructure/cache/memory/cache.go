// Package memory provides a per-process cache used when Redis is not configured.
package memory

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/itera/chatbot-service/internal/core/cache"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

// DefaultSweepInterval is how often NewCache drops expired entries.
const DefaultSweepInterval = time.Minute

func (it item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// Cache implements cache.Client with an in-memory map. Performance samples are
// written once and never read back, so expired entries are swept in the background.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]item
	defaultTTL time.Duration
	done       chan struct{}
}

var _ cache.Client = (*Cache)(nil)

// NewCache creates a new in-memory cache swept every DefaultSweepInterval.
func NewCache(defaultTTL time.Duration) *Cache {
	return NewCacheWithSweep(defaultTTL, DefaultSweepInterval)
}

// NewCacheWithSweep creates a cache swept at interval; zero disables the sweep.
func NewCacheWithSweep(defaultTTL, interval time.Duration) *Cache {
	c := &Cache{
		items:      make(map[string]item),
		defaultTTL: defaultTTL,
		done:       make(chan struct{}),
	}
	if interval > 0 {
		go c.sweepLoop(interval)
	}
	return c
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns nil if the key does not exist or has expired.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil // Key not found
	}
	if it.expired(time.Now()) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, nil
	}
	return it.value, nil
}

// Set stores a copy of value. A ttl of 0 uses the default TTL.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	it := item{value: stored}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	delete(c.items, key)
	return ok, nil
}

// DeletePattern removes keys matching a glob pattern.
func (c *Cache) DeletePattern(_ context.Context, pattern string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deleted int64
	for key := range c.items {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return deleted, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if matched {
			delete(c.items, key)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (c *Cache) Ping(_ context.Context) error {
	return nil
}

// Close stops the sweep and drops all entries. It is safe to call twice.
func (c *Cache) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
	return nil
}

// Package memory provides the in-process guardrail store.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     float64
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// DefaultSweepInterval is how often NewStore drops expired counters.
const DefaultSweepInterval = time.Minute

// Store implements guardrail.Store with a mutex-guarded map. Rate keys are only
// ever incremented, so expired entries are removed by a background sweep rather
// than on read.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
	done    chan struct{}
}

func newStore(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     now,
		done:    make(chan struct{}),
	}
}

// NewStore creates a new in-memory store swept every DefaultSweepInterval.
func NewStore() *Store {
	return NewStoreWithSweep(DefaultSweepInterval)
}

// NewStoreWithSweep creates a store swept at the given interval.
func NewStoreWithSweep(interval time.Duration) *Store {
	s := newStore(time.Now)
	if interval > 0 {
		go s.sweepLoop(interval)
	}
	return s
}

// NewStoreWithClock creates a store that reads time from now and has no
// background sweep. Used by tests to move windows; call Sweep directly.
func NewStoreWithClock(now func() time.Time) *Store {
	return newStore(now)
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Increment adds delta to the counter at key.
func (s *Store) Increment(_ context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		e = entry{}
		if ttl > 0 {
			e.expiresAt = now.Add(ttl)
		}
	}
	e.value += delta
	s.entries[key] = e
	return e.value, nil
}

// Get returns the counter value, or 0 when missing or expired.
func (s *Store) Get(_ context.Context, key string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return 0, nil
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return 0, nil
	}
	return e.value, nil
}

// Expire resets the ttl of an existing key.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	s.entries[key] = e
	return nil
}

// Reset removes all keys with the given prefix.
func (s *Store) Reset(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close stops the sweep and drops all counters. It is safe to call twice.
func (s *Store) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	return nil
}

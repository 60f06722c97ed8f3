package guardrails

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/itera/chatbot-service/internal/core/cache"
)

// DefaultCacheTTL is how long a cached reply stays valid.
const DefaultCacheTTL = time.Hour

var nonWord = regexp.MustCompile(`[^\w\s]`)

// CachedResponse is a reply stored by ResponseCache.
type CachedResponse struct {
	Message  string    `json:"message"`
	Intent   string    `json:"intent"`
	Escalate bool      `json:"escalate"`
	Options  []string  `json:"options,omitempty"`
	NextStep string    `json:"nextStep,omitempty"`
	CachedAt time.Time `json:"cachedAt"`
}

// ResponseCache stores replies keyed by normalized message and conversation step.
type ResponseCache struct {
	client cache.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache. A ttl of 0 uses DefaultCacheTTL.
func NewResponseCache(client cache.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Key builds the cache key: lower-cased, punctuation stripped, trimmed, plus the step.
func Key(message, step string) string {
	normalized := strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(message), ""))
	if step == "" {
		step = "default"
	}
	return cache.Key(cache.NamespaceAIResponse, normalized+"_"+step)
}

// Get returns the cached reply, or nil when absent or older than the TTL.
func (c *ResponseCache) Get(ctx context.Context, message, step string) (*CachedResponse, error) {
	data, err := c.client.Get(ctx, Key(message, step))
	if err != nil {
		return nil, fmt.Errorf("failed to read response cache: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var entry CachedResponse
	if err := json.Unmarshal(data, &entry); err != nil {
		_, _ = c.client.Delete(ctx, Key(message, step))
		return nil, nil
	}
	if time.Since(entry.CachedAt) > c.ttl {
		return nil, nil
	}
	return &entry, nil
}

// Put stores a reply.
func (c *ResponseCache) Put(ctx context.Context, message, step string, entry CachedResponse) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached response: %w", err)
	}
	if err := c.client.Set(ctx, Key(message, step), data, c.ttl); err != nil {
		return fmt.Errorf("failed to write response cache: %w", err)
	}
	return nil
}

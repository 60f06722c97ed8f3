// Package session persists chatbot sessions as encrypted JSON in the cache.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itera/chatbot-service/internal/core/cache"
	"github.com/itera/chatbot-service/internal/domain/models"
	"github.com/itera/chatbot-service/internal/pkg/encryption"
)

// DefaultSessionTTL is the default TTL for a stored session (1 hour).
const DefaultSessionTTL = time.Hour

// Service provides session persistence.
type Service interface {
	// GetSession retrieves a session, or returns nil if not found or unreadable.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// SetSession stores a session with the configured TTL.
	SetSession(ctx context.Context, session *models.Session) error

	// BuildCacheKey generates the cache key for a session.
	BuildCacheKey(sessionID string) string
}

// service implements the Service interface.
type service struct {
	cacheClient cache.Client
	encryptor   encryption.Encryptor
	ttl         time.Duration
}

// Config holds the configuration for the session service.
type Config struct {
	CacheClient cache.Client
	Encryptor   encryption.Encryptor
	TTL         time.Duration
}

// NewService creates a new session service.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.CacheClient == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if cfg.Encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}

	return &service{
		cacheClient: cfg.CacheClient,
		encryptor:   cfg.Encryptor,
		ttl:         ttl,
	}, nil
}

// GetSession retrieves a session from cache.
// Returns nil (not an error) if decryption fails (e.g., key changed) so a fresh session is started.
func (s *service) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	key := s.BuildCacheKey(sessionID)

	encrypted, err := s.cacheClient.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	if encrypted == nil {
		return nil, nil // Not found
	}

	decrypted, err := s.encryptor.Decrypt(string(encrypted))
	if err != nil {
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(decrypted, &session); err != nil {
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil, nil
	}
	if session.Context.LeadData == nil {
		session.Context.LeadData = map[string]string{}
	}

	return &session, nil
}

// SetSession stores a session in cache.
func (s *service) SetSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	session.UpdatedAt = time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	encrypted, err := s.encryptor.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	if err := s.cacheClient.Set(ctx, s.BuildCacheKey(session.ID), []byte(encrypted), s.ttl); err != nil {
		return fmt.Errorf("failed to store session in cache: %w", err)
	}

	return nil
}

// BuildCacheKey generates the cache key for a session.
func (s *service) BuildCacheKey(sessionID string) string {
	return cache.Key(cache.NamespaceSession, sessionID)
}

// Package dotenv resolves secrets from the environment and an optional env file.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"

	"github.com/itera/chatbot-service/internal/core/vault"
)

// Client implements vault.Client. Process environment variables win over the file.
type Client struct {
	mu      sync.RWMutex
	path    string
	secrets map[string]string
}

// NewClient creates a client. An empty path reads the environment only.
func NewClient(path string) (*Client, error) {
	c := &Client{
		path:    path,
		secrets: map[string]string{},
	}
	if path == "" {
		return c, nil
	}

	secrets, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	c.secrets = secrets
	return c, nil
}

// GetSecret looks the name up in the environment, then in the file.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if value, ok := c.secrets[name]; ok && value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", vault.ErrSecretNotFound, name)
}

// Ping checks that the secrets file, if any, is still readable.
func (c *Client) Ping(ctx context.Context) error {
	if c.path == "" {
		return nil
	}
	if _, err := os.Stat(c.path); err != nil {
		return fmt.Errorf("secrets file unavailable: %w", err)
	}
	return nil
}

// Close drops the cached file contents.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.secrets = map[string]string{}
	return nil
}

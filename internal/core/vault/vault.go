// Package vault defines how the service resolves its secrets.
package vault

import (
	"context"
	"errors"
)

// Names of the secrets the service reads.
const (
	SecretEncryptionKey   = "SECRETS_ENCRYPTION_KEY"
	SecretOpenAIAPIKey    = "OPENAI_API_KEY"
	SecretAnthropicAPIKey = "ANTHROPIC_API_KEY"
	SecretTeamsWebhookURL = "TEAMS_WEBHOOK_URL"
	SecretAdminAPIKey     = "ADMIN_API_KEY"
)

// ErrSecretNotFound is returned when no source holds the requested secret.
var ErrSecretNotFound = errors.New("secret not found")

// Client defines the interface for a read-only secret source.
type Client interface {
	// GetSecret returns the value of a named secret, or ErrSecretNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// Ping checks if the secret source is reachable.
	Ping(ctx context.Context) error

	// Close releases the client.
	Close() error
}

// SecretOr returns the named secret, or fallback when it is missing or unreadable.
func SecretOr(ctx context.Context, c Client, name, fallback string) string {
	if fallback != "" || c == nil {
		return fallback
	}
	value, err := c.GetSecret(ctx, name)
	if err != nil {
		return ""
	}
	return value
}

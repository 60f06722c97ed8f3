// Package docdb provides the conversations collection interface.
package docdb

import (
	"context"

	"github.com/itera/chatbot-service/internal/domain/models"
)

// SortOrder represents the sort direction.
type SortOrder string

const (
	// SortOrderAsc represents ascending order.
	SortOrderAsc SortOrder = "asc"
	// SortOrderDesc represents descending order.
	SortOrderDesc SortOrder = "desc"
)

// ListMessagesOptions contains options for listing archived messages.
type ListMessagesOptions struct {
	SessionID string
	Limit     int64
	Skip      int64
	OrderBy   SortOrder // Order by createdAt
}

// ConversationsCollection defines the interface for archived transcript operations.
type ConversationsCollection interface {
	// AddMessages appends the messages of one turn.
	AddMessages(ctx context.Context, messages []*models.ConversationMessage) error

	// ListBySession lists the archived messages of a session.
	ListBySession(ctx context.Context, opts *ListMessagesOptions) ([]*models.ConversationMessage, error)

	// EnsureIndexes creates necessary indexes for the collection.
	EnsureIndexes(ctx context.Context) error
}

package docdb

import (
	"context"

	"github.com/itera/chatbot-service/internal/domain/models"
)

// ListLeadsOptions contains options for listing leads.
type ListLeadsOptions struct {
	Priority string
	MinScore int
	Limit    int64
	Skip     int64
}

// LeadsCollection defines the interface for escalated lead operations.
type LeadsCollection interface {
	// Create inserts a new lead.
	Create(ctx context.Context, lead *models.LeadRecord) error

	// List retrieves the most recent leads first.
	List(ctx context.Context, opts *ListLeadsOptions) ([]*models.LeadRecord, error)

	// EnsureIndexes creates necessary indexes for the collection.
	EnsureIndexes(ctx context.Context) error
}

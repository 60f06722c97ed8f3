// Package docdb defines the conversation archive: a document database
// holding transcripts and escalated leads.
package docdb

import (
	"context"
	"fmt"
	"strings"
)

// Type selects an archive backend.
type Type string

const (
	TypeMongoDB Type = "mongodb"
	// TypeCosmosDB is Azure Cosmos DB through its MongoDB API.
	TypeCosmosDB Type = "cosmosdb"
)

// ParseType normalizes a configured backend name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeMongoDB, TypeCosmosDB:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported docdb type: %q", s)
	}
}

// Client is a connected archive.
type Client interface {
	Conversations() ConversationsCollection
	Leads() LeadsCollection

	// Ping fails when the primary is unreachable.
	Ping(ctx context.Context) error

	// EnsureIndexes is called once at startup.
	EnsureIndexes(ctx context.Context) error

	Close(ctx context.Context) error
}

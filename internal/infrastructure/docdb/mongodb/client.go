// Package mongodb archives transcripts and leads in MongoDB (or Cosmos DB's Mongo API).
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/itera/chatbot-service/internal/core/docdb"
)

const (
	appName               = "itera-chatbot-service"
	defaultConnectTimeout = 10 * time.Second
)

// ClientConfig holds MongoDB connection configuration.
type ClientConfig struct {
	URI          string
	DatabaseName string
	// ConnectTimeout bounds connect and server selection. Defaults to 10s.
	ConnectTimeout time.Duration
	// Retention expires archived messages; zero keeps them forever.
	Retention time.Duration
}

// Client implements the docdb.Client interface for MongoDB.
type Client struct {
	client        *mongo.Client
	conversations *ConversationsCollection
	leads         *LeadsCollection
}

// NewClient connects, verifies the primary is reachable and binds the collections.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	clientOpts := options.Client().
		ApplyURI(config.URI).
		SetAppName(appName).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetRetryWrites(false)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(config.DatabaseName)

	return &Client{
		client:        client,
		conversations: NewConversationsCollection(db, config.Retention),
		leads:         NewLeadsCollection(db),
	}, nil
}

// Conversations returns the archived transcript collection.
func (c *Client) Conversations() docdb.ConversationsCollection {
	return c.conversations
}

// Leads returns the escalated leads collection.
func (c *Client) Leads() docdb.LeadsCollection {
	return c.leads
}

// Ping checks that the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes of both collections.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	if err := c.conversations.EnsureIndexes(ctx); err != nil {
		return err
	}
	return c.leads.EnsureIndexes(ctx)
}

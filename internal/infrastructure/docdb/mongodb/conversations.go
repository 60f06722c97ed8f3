package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/itera/chatbot-service/internal/core/docdb"
	"github.com/itera/chatbot-service/internal/domain/models"
)

// ConversationsCollectionName is the name of the archived transcript collection.
const ConversationsCollectionName = "conversations"

// ConversationsCollection implements docdb.ConversationsCollection for MongoDB.
type ConversationsCollection struct {
	collection *mongo.Collection
	retention  time.Duration
}

// NewConversationsCollection creates a new conversations collection wrapper.
// A positive retention expires archived messages that much after createdAt.
func NewConversationsCollection(db *mongo.Database, retention time.Duration) *ConversationsCollection {
	return &ConversationsCollection{
		collection: db.Collection(ConversationsCollectionName),
		retention:  retention,
	}
}

// AddMessages inserts the messages of one turn.
func (c *ConversationsCollection) AddMessages(ctx context.Context, messages []*models.ConversationMessage) error {
	if len(messages) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		if m.ID == "" {
			return fmt.Errorf("message ID is required")
		}
		docs = append(docs, m)
	}

	if _, err := c.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert conversation messages: %w", err)
	}
	return nil
}

// ListBySession lists archived messages with pagination and sorting.
func (c *ConversationsCollection) ListBySession(ctx context.Context, opts *docdb.ListMessagesOptions) ([]*models.ConversationMessage, error) {
	if opts == nil || opts.SessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}

	// Transcripts read naturally oldest first
	sortOrder := 1
	if opts.OrderBy == docdb.SortOrderDesc {
		sortOrder = -1
	}
	findOpts.SetSort(bson.D{{Key: "createdAt", Value: sortOrder}})

	cursor, err := c.collection.Find(ctx, bson.M{"sessionId": opts.SessionID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.ConversationMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode conversation messages: %w", err)
	}

	return messages, nil
}

// EnsureIndexes creates necessary indexes for the conversations collection.
func (c *ConversationsCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sessionId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_session_created"),
		},
		c.createdAtIndex(),
		{
			Keys:    bson.D{{Key: "arm", Value: 1}},
			Options: options.Index().SetName("idx_arm").SetSparse(true),
		},
	}

	if _, err := c.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create conversations indexes: %w", err)
	}
	return nil
}

// createdAtIndex doubles as the retention TTL index when retention is set.
// Changing retention later requires dropping the index first.
func (c *ConversationsCollection) createdAtIndex() mongo.IndexModel {
	if c.retention <= 0 {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		}
	}
	return mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().
			SetName("idx_created_at_ttl").
			SetExpireAfterSeconds(int32(c.retention / time.Second)),
	}
}

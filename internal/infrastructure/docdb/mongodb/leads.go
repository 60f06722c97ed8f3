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

// LeadsCollectionName is the name of the leads collection.
const LeadsCollectionName = "leads"

// LeadsCollection implements docdb.LeadsCollection for MongoDB.
type LeadsCollection struct {
	collection *mongo.Collection
}

// NewLeadsCollection creates a new leads collection wrapper.
func NewLeadsCollection(db *mongo.Database) *LeadsCollection {
	return &LeadsCollection{
		collection: db.Collection(LeadsCollectionName),
	}
}

// Create inserts a new lead.
func (c *LeadsCollection) Create(ctx context.Context, lead *models.LeadRecord) error {
	if lead.ID == "" {
		return fmt.Errorf("lead ID is required")
	}
	if lead.Timestamp.IsZero() {
		lead.Timestamp = time.Now().UTC()
	}

	if _, err := c.collection.InsertOne(ctx, lead); err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// List retrieves leads newest first.
func (c *LeadsCollection) List(ctx context.Context, opts *docdb.ListLeadsOptions) ([]*models.LeadRecord, error) {
	filter := bson.M{}
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	if opts != nil {
		if opts.Priority != "" {
			filter["priority"] = opts.Priority
		}
		if opts.MinScore > 0 {
			filter["leadScore"] = bson.M{"$gte": opts.MinScore}
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
	}

	cursor, err := c.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer cursor.Close(ctx)

	var leads []*models.LeadRecord
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, fmt.Errorf("failed to decode leads: %w", err)
	}

	return leads, nil
}

// EnsureIndexes creates necessary indexes for the leads collection.
func (c *LeadsCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetName("idx_session_id"),
		},
		{
			Keys: bson.D{
				{Key: "priority", Value: 1},
				{Key: "leadScore", Value: -1},
			},
			Options: options.Index().SetName("idx_priority_score"),
		},
	}

	if _, err := c.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create leads indexes: %w", err)
	}
	return nil
}

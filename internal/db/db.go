// Package db manages MongoDB connections and collections.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names.
const (
	UsersCollection    = "users"
	SkillsCollection   = "skills"
	MessagesCollection = "messages"
)

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the underlying MongoDB connection (safe for concurrent use)
	client *mongo.Client

	// db holds the users, skills and messages collections
	db *mongo.Database
}

// New connects to MongoDB, verifies the connection and selects database.
func New(ctx context.Context, mongoURI, database string) (*Client, error) {
	// fail fast when the server is unreachable instead of waiting the
	// driver's 30s server selection default
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Connect is lazy; ping the primary to verify the connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background()) // release the pool before failing
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Database returns the selected database name.
func (c *Client) Database() string {
	return c.db.Name()
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection(UsersCollection)
}

// SkillsCollection returns the skills collection.
func (c *Client) SkillsCollection() *mongo.Collection {
	return c.db.Collection(SkillsCollection)
}

// MessagesCollection returns the messages collection.
func (c *Client) MessagesCollection() *mongo.Collection {
	return c.db.Collection(MessagesCollection)
}

// Ping checks that the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes every store relies on. Index creation is
// idempotent so this runs on every start.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// ===== USERS =====
	// unique email; registration relies on the duplicate key error
	usersIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndex); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// ===== SKILLS =====
	skillIndexes := []mongo.IndexModel{
		{
			// $text search over the listing
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "category", Value: "text"},
			},
		},
		{
			// skills by owner for profiles and account deletion
			Keys: bson.D{{Key: "posted_by", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			// public listing: active skills newest first
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := c.SkillsCollection().Indexes().CreateMany(ctx, skillIndexes); err != nil {
		return fmt.Errorf("failed to create skill indexes: %w", err)
	}

	// ===== MESSAGES =====
	// bson.D keeps compound key order, a map would not
	messageIndexes := []mongo.IndexModel{
		{
			// pairwise conversation lookups ordered by time
			Keys: bson.D{
				{Key: "sender", Value: 1},
				{Key: "receiver", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			// unread counting per receiver
			Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "is_read", Value: 1}},
		},
	}
	if _, err := c.MessagesCollection().Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	return nil
}

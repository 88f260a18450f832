package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// MongoConfig configures a MongoDB-backed store.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string

	// Database and Collection name the target namespace.
	// Collection defaults to "heatsets".
	Database   string
	Collection string

	// ConnectTimeout bounds the initial connection. Defaults to 10s.
	ConnectTimeout time.Duration
}

// MongoStore persists heatmap sets in a MongoDB collection, one document per
// run ID, for the hosted prediction service where multiple instances share
// the aggregation output.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the heatset collection,
// including the build-timestamp index used by Latest and List.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "heatsets"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "built_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Save upserts the set under its run ID.
func (s *MongoStore) Save(ctx context.Context, set *heat.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: set.ID}},
		set,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save heatset: %w", err)
	}
	return nil
}

// Load retrieves a set by run ID.
func (s *MongoStore) Load(ctx context.Context, id string) (*heat.Set, error) {
	var set heat.Set
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load heatset: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Latest retrieves the most recently built set.
func (s *MongoStore) Latest(ctx context.Context) (*heat.Set, error) {
	var set heat.Set
	err := s.coll.FindOne(ctx, bson.D{},
		options.FindOne().SetSort(bson.D{{Key: "built_at", Value: -1}})).Decode(&set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load latest heatset: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// List summarizes all stored sets, newest first. Grid payloads are excluded
// from the query so listing stays cheap as the corpus history grows.
func (s *MongoStore) List(ctx context.Context) ([]SetInfo, error) {
	cursor, err := s.coll.Find(ctx, bson.D{},
		options.Find().
			SetSort(bson.D{{Key: "built_at", Value: -1}}).
			SetProjection(bson.D{{Key: "grids", Value: 0}}))
	if err != nil {
		return nil, fmt.Errorf("list heatsets: %w", err)
	}
	defer cursor.Close(ctx)

	var out []SetInfo
	for cursor.Next(ctx) {
		var set heat.Set
		if err := cursor.Decode(&set); err != nil {
			return nil, fmt.Errorf("decode heatset: %w", err)
		}
		out = append(out, info(&set))
	}
	return out, cursor.Err()
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

package db

import (
	"context"
	"fmt"
	"log"

	"product-search/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig locates the product mirror collection
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoMirror keeps a copy of every product record in MongoDB, keyed by
// source URL
type MongoMirror struct {
	cfg        MongoConfig
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoMirror creates a mirror. Call Connect before use.
func NewMongoMirror(cfg MongoConfig) *MongoMirror {
	return &MongoMirror{cfg: cfg}
}

// Connect dials the server, pings it and makes sure source_url is unique
func (m *MongoMirror) Connect(ctx context.Context) error {
	if m.cfg.URI == "" {
		return fmt.Errorf("mongo URI is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.cfg.URI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("mongo ping: %w", err)
	}

	m.client = client
	m.collection = client.Database(m.cfg.Database).Collection(m.cfg.Collection)

	_, err = m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source_url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Mongo: could not ensure source_url index: %v", err)
	}
	return nil
}

func (m *MongoMirror) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *MongoMirror) ready() error {
	if m.collection == nil {
		return fmt.Errorf("mongo mirror not connected")
	}
	return nil
}

// SaveProduct upserts rec by its source URL
func (m *MongoMirror) SaveProduct(ctx context.Context, rec *domain.ProductRecord) error {
	if err := m.ready(); err != nil {
		return err
	}
	if rec.SourceURL == "" {
		return fmt.Errorf("product has no source_url")
	}

	_, err := m.collection.UpdateOne(ctx,
		bson.M{"source_url": rec.SourceURL},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mirror %s: %w", rec.SourceURL, err)
	}
	return nil
}

// GetAllURLs returns the set of mirrored source URLs
func (m *MongoMirror) GetAllURLs(ctx context.Context) (map[string]bool, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	cursor, err := m.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"source_url": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("query source URLs: %w", err)
	}
	defer cursor.Close(ctx)

	seen := make(map[string]bool)
	for cursor.Next(ctx) {
		var doc struct {
			SourceURL string `bson:"source_url"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		if doc.SourceURL != "" {
			seen[doc.SourceURL] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return seen, nil
}

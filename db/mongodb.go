package db

import (
	"context"
	"fmt"

	"noise-mapping/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const classificationsCollection = "classifications"

// MongoStore keeps one document per classification record.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(classificationsCollection),
	}, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) PutRecord(ctx context.Context, record models.ClassificationRecord) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"id": record.ID},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("error storing record in MongoDB: %w", err)
	}
	return nil
}

func (s *MongoStore) ScanAll(ctx context.Context) ([]models.ClassificationRecord, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error querying MongoDB: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.ClassificationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding records: %w", err)
	}
	return records, nil
}

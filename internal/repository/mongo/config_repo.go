package mongo

import (
	"context"
	"errors"

	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const configCollectionName = "configs"

// configDocument is the shape of one admin key/value setting.
type configDocument struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

// mongoConfigRepository implements repository.ConfigRepository using MongoDB.
type mongoConfigRepository struct {
	collection *mongo.Collection
}

// NewMongoConfigRepository creates a config repository backed by MongoDB.
func NewMongoConfigRepository(db *mongo.Database) repository.ConfigRepository {
	return &mongoConfigRepository{
		collection: db.Collection(configCollectionName),
	}
}

// Value retrieves the setting stored under key.
func (r *mongoConfigRepository) Value(ctx context.Context, key string) (string, error) {
	var doc configDocument
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return doc.Value, nil
}

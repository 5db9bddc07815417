package mongo

import (
	"context"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const deviceCollectionName = "device_registrations"

// mongoDeviceRepository implements repository.DeviceRepository using MongoDB.
type mongoDeviceRepository struct {
	collection *mongo.Collection
}

// NewMongoDeviceRepository creates a device repository backed by MongoDB.
func NewMongoDeviceRepository(db *mongo.Database) repository.DeviceRepository {
	return &mongoDeviceRepository{
		collection: db.Collection(deviceCollectionName),
	}
}

// Upsert stores a push token for a profile. Re-registering the same token
// refreshes its timestamp instead of duplicating it.
func (r *mongoDeviceRepository) Upsert(ctx context.Context, registration *domain.DeviceRegistration) error {
	now := time.Now().UTC()
	filter := bson.M{
		"userProfileId":  registration.UserProfileID,
		"registrationId": registration.Token,
	}
	update := bson.M{
		"$set": bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"userProfileId":  registration.UserProfileID,
			"registrationId": registration.Token,
			"createdAt":      now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// ListAll returns every registered device. The notifier sweeps this list.
func (r *mongoDeviceRepository) ListAll(ctx context.Context) ([]domain.DeviceRegistration, error) {
	var out []domain.DeviceRegistration
	if err := findAll(ctx, r.collection, bson.M{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByToken drops a registration, e.g. after the push service reports the
// token dead.
func (r *mongoDeviceRepository) DeleteByToken(ctx context.Context, token string) error {
	result, err := r.collection.DeleteMany(ctx, bson.M{"registrationId": token})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureDeviceIndexes creates the uniqueness index backing the upsert.
func EnsureDeviceIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userProfileId", Value: 1},
				{Key: "registrationId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logrus.WithError(err).Warnf("failed to create indexes for collection %s", collection.Name())
	}
}

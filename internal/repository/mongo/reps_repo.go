package mongo

import (
	"context"
	"errors"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	repsRangeCollectionName = "reps_ranges"
	rirCollectionName       = "reps_in_reserve"
)

// mongoRepsRepository implements repository.RepsRepository using MongoDB.
// Ratings are embedded in their reps-range document.
type mongoRepsRepository struct {
	ranges *mongo.Collection
	rir    *mongo.Collection
}

// NewMongoRepsRepository creates a reps repository backed by MongoDB.
func NewMongoRepsRepository(db *mongo.Database) repository.RepsRepository {
	return &mongoRepsRepository{
		ranges: db.Collection(repsRangeCollectionName),
		rir:    db.Collection(rirCollectionName),
	}
}

// RangesByGoal lists a goal's reps ranges in creation order.
func (r *mongoRepsRepository) RangesByGoal(ctx context.Context, goalID primitive.ObjectID) ([]domain.RepsRange, error) {
	var out []domain.RepsRange
	if err := findAll(ctx, r.ranges, bson.M{"goalId": goalID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RIRByGoalAndLevel retrieves the weekly RIR targets for a goal and fitness
// level.
func (r *mongoRepsRepository) RIRByGoalAndLevel(ctx context.Context, goalID, fitnessLevelID primitive.ObjectID) (*domain.RepsInReserve, error) {
	var rir domain.RepsInReserve
	filter := bson.M{"goalId": goalID, "fitnessLevelId": fitnessLevelID}
	err := r.rir.FindOne(ctx, filter).Decode(&rir)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rir, nil
}

// EnsureRepsIndexes creates lookup indexes for the reps collections.
func EnsureRepsIndexes(ctx context.Context, db *mongo.Database) {
	if _, err := db.Collection(repsRangeCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "goalId", Value: 1}, {Key: "value", Value: 1}},
	}); err != nil {
		logrus.WithError(err).Warnf("failed to create indexes for collection %s", repsRangeCollectionName)
	}
	if _, err := db.Collection(rirCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "goalId", Value: 1}, {Key: "fitnessLevelId", Value: 1}},
	}); err != nil {
		logrus.WithError(err).Warnf("failed to create indexes for collection %s", rirCollectionName)
	}
}

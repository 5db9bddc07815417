package mongo

import (
	"context"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const feedbackCollectionName = "user_feedbacks"

// mongoFeedbackRepository implements repository.FeedbackRepository using
// MongoDB.
type mongoFeedbackRepository struct {
	collection *mongo.Collection
}

// NewMongoFeedbackRepository creates a feedback repository backed by MongoDB.
func NewMongoFeedbackRepository(db *mongo.Database) repository.FeedbackRepository {
	return &mongoFeedbackRepository{
		collection: db.Collection(feedbackCollectionName),
	}
}

// Upsert stores a questionnaire answer, replacing any earlier answer for the
// same (profile, feedback, program row) triple.
func (r *mongoFeedbackRepository) Upsert(ctx context.Context, feedback *domain.UserFeedback) error {
	now := time.Now().UTC()
	filter := bson.M{
		"userProfileId":   feedback.UserProfileID,
		"feedbackId":      feedback.FeedbackID,
		"programDesignId": feedback.ProgramDesignID,
	}
	update := bson.M{
		"$set": bson.M{
			"value":     feedback.Value,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"userProfileId":   feedback.UserProfileID,
			"feedbackId":      feedback.FeedbackID,
			"programDesignId": feedback.ProgramDesignID,
			"createdAt":       now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// ListByProfile returns all of a profile's questionnaire answers.
func (r *mongoFeedbackRepository) ListByProfile(ctx context.Context, profileID primitive.ObjectID) ([]domain.UserFeedback, error) {
	var out []domain.UserFeedback
	if err := findAll(ctx, r.collection, bson.M{"userProfileId": profileID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureFeedbackIndexes creates the uniqueness index backing the upsert.
func EnsureFeedbackIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userProfileId", Value: 1},
				{Key: "feedbackId", Value: 1},
				{Key: "programDesignId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logrus.WithError(err).Warnf("failed to create indexes for collection %s", collection.Name())
	}
}

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	equipmentOptionCollectionName = "equipment_options"
	sessionLengthCollectionName   = "session_lengths"
	workoutFlowCollectionName     = "workout_flows"
	programSlotCollectionName     = "program_slots"
	catalogEntryCollectionName    = "catalog_entries"
	goalCollectionName            = "goals"
)

// creationOrder sorts by _id ascending; ObjectIDs are time-prefixed so this
// reproduces insertion order, which the matching contract depends on.
var creationOrder = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

// mongoCatalogRepository implements repository.CatalogRepository using MongoDB.
type mongoCatalogRepository struct {
	options *mongo.Collection
	lengths *mongo.Collection
	flows   *mongo.Collection
	slots   *mongo.Collection
	entries *mongo.Collection
	goals   *mongo.Collection
}

// NewMongoCatalogRepository creates a catalog repository backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		options: db.Collection(equipmentOptionCollectionName),
		lengths: db.Collection(sessionLengthCollectionName),
		flows:   db.Collection(workoutFlowCollectionName),
		slots:   db.Collection(programSlotCollectionName),
		entries: db.Collection(catalogEntryCollectionName),
		goals:   db.Collection(goalCollectionName),
	}
}

// EquipmentOptions lists all equipment options in creation order.
func (r *mongoCatalogRepository) EquipmentOptions(ctx context.Context) ([]domain.EquipmentOption, error) {
	var out []domain.EquipmentOption
	if err := findAll(ctx, r.options, bson.M{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionLengths lists the session-length rows for an (equipment option,
// goal, total length) combination.
func (r *mongoCatalogRepository) SessionLengths(ctx context.Context, optionID, goalID primitive.ObjectID, totalLength float64) ([]domain.SessionLength, error) {
	filter := bson.M{
		"equipmentOptionId":  optionID,
		"goalId":             goalID,
		"totalSessionLength": totalLength,
	}
	var out []domain.SessionLength
	if err := findAll(ctx, r.lengths, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WorkoutFlows lists a session length's flows that carry a sort value.
// Flows with an empty value are placeholders and never scheduled.
func (r *mongoCatalogRepository) WorkoutFlows(ctx context.Context, sessionLengthID primitive.ObjectID) ([]domain.WorkoutFlow, error) {
	filter := bson.M{
		"sessionLengthId": sessionLengthID,
		"value":           bson.M{"$ne": ""},
	}
	var out []domain.WorkoutFlow
	if err := findAll(ctx, r.flows, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProgramSlots lists the template slots of a flow for a weekly frequency.
func (r *mongoCatalogRepository) ProgramSlots(ctx context.Context, workoutFlowID primitive.ObjectID, sessionsPerWeek int) ([]domain.ProgramSlot, error) {
	filter := bson.M{
		"workoutFlowId":   workoutFlowID,
		"sessionsPerWeek": sessionsPerWeek,
	}
	var out []domain.ProgramSlot
	if err := findAll(ctx, r.slots, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Entries lists catalog entries matching a slot. Classification and variance
// must match exactly: a slot without one only matches entries without it.
func (r *mongoCatalogRepository) Entries(ctx context.Context, f repository.EntryFilter) ([]domain.CatalogEntry, error) {
	filter := bson.M{
		"bodyPartId": f.BodyPartID,
	}
	if len(f.EquipmentOptionIDs) > 0 {
		filter["equipmentOptionId"] = bson.M{"$in": f.EquipmentOptionIDs}
	}
	if f.ClassificationID != nil {
		filter["classificationId"] = *f.ClassificationID
	} else {
		filter["classificationId"] = bson.M{"$exists": false}
	}
	if f.VarianceID != nil {
		filter["varianceId"] = *f.VarianceID
	} else {
		filter["varianceId"] = bson.M{"$exists": false}
	}

	var out []domain.CatalogEntry
	if err := findAll(ctx, r.entries, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GoalByID retrieves one goal.
func (r *mongoCatalogRepository) GoalByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	var goal domain.Goal
	err := r.goals.FindOne(ctx, bson.M{"_id": id}).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// findAll runs a creation-ordered Find and decodes every document into out.
func findAll(ctx context.Context, collection *mongo.Collection, filter bson.M, out interface{}) error {
	cursor, err := collection.Find(ctx, filter, creationOrder)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, out); err != nil {
		return err
	}
	return cursor.Err()
}

// EnsureCatalogIndexes creates the lookup indexes the generator relies on.
func EnsureCatalogIndexes(ctx context.Context, db *mongo.Database) {
	ensure := func(name string, indexes []mongo.IndexModel) {
		collection := db.Collection(name)
		if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
			logrus.WithError(err).Warnf("failed to create indexes for collection %s", name)
		}
	}

	ensure(sessionLengthCollectionName, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "equipmentOptionId", Value: 1},
			{Key: "goalId", Value: 1},
			{Key: "totalSessionLength", Value: 1},
		}},
	})
	ensure(workoutFlowCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionLengthId", Value: 1}}},
	})
	ensure(programSlotCollectionName, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "workoutFlowId", Value: 1},
			{Key: "sessionsPerWeek", Value: 1},
		}},
	})
	ensure(catalogEntryCollectionName, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "bodyPartId", Value: 1},
			{Key: "equipmentOptionId", Value: 1},
		}},
	})
}

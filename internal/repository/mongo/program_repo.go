package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const programCollectionName = "user_program_designs"

// dateOrder sorts program rows chronologically, ties broken by day index so
// rows created for the same date keep template order.
var dateOrder = options.Find().SetSort(bson.D{
	{Key: "workoutDate", Value: 1},
	{Key: "day", Value: 1},
})

// mongoProgramRepository implements repository.ProgramRepository using MongoDB.
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a program repository backed by MongoDB.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// CreateMany inserts a whole generation run at once. InsertMany is ordered so
// a failure aborts the remainder; callers run it inside a transaction.
func (r *mongoProgramRepository) CreateMany(ctx context.Context, designs []domain.UserProgramDesign) error {
	if len(designs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(designs))
	for i := range designs {
		designs[i].ID = primitive.NewObjectID()
		designs[i].CreatedAt = now
		designs[i].UpdatedAt = now
		docs[i] = designs[i]
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves one program row.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserProgramDesign, error) {
	var design domain.UserProgramDesign
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&design)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &design, nil
}

// List returns a profile's program rows in date order, optionally narrowed by
// week and date bounds.
func (r *mongoProgramRepository) List(ctx context.Context, f repository.ProgramFilter) ([]domain.UserProgramDesign, error) {
	filter := bson.M{"userProfileId": f.UserProfileID}
	if f.Week != nil {
		filter["week"] = *f.Week
	}
	dateBounds := bson.M{}
	if f.StartDate != nil {
		dateBounds["$gte"] = *f.StartDate
	}
	if f.EndDate != nil {
		dateBounds["$lte"] = *f.EndDate
	}
	if len(dateBounds) > 0 {
		filter["workoutDate"] = dateBounds
	}

	var out []domain.UserProgramDesign
	cursor, err := r.collection.Find(ctx, filter, dateOrder)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, cursor.Err()
}

// Update replaces the mutable fields of one row.
func (r *mongoProgramRepository) Update(ctx context.Context, design *domain.UserProgramDesign) error {
	if design.ID == primitive.NilObjectID {
		return errors.New("program design ID is required for update")
	}

	update := bson.M{
		"$set": bson.M{
			"exercises":   design.Exercises,
			"workoutDate": design.WorkoutDate,
			"isComplete":  design.IsComplete,
			"endDate":     design.EndDate,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": design.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteIncomplete removes every unfinished row of a profile's runs with the
// given personalization flag. Completed rows stay as history.
func (r *mongoProgramRepository) DeleteIncomplete(ctx context.Context, profileID primitive.ObjectID, personalized bool) error {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"isComplete":     false,
	}
	_, err := r.collection.DeleteMany(ctx, filter)
	return err
}

// IncompleteBefore returns unfinished rows dated strictly before cutoff.
func (r *mongoProgramRepository) IncompleteBefore(ctx context.Context, profileID primitive.ObjectID, personalized bool, cutoff time.Time) ([]domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"isComplete":     false,
		"workoutDate":    bson.M{"$lt": cutoff},
	}
	return r.find(ctx, filter)
}

// IncompleteFrom returns unfinished rows dated on or after from.
func (r *mongoProgramRepository) IncompleteFrom(ctx context.Context, profileID primitive.ObjectID, personalized bool, from time.Time) ([]domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"isComplete":     false,
		"workoutDate":    bson.M{"$gte": from},
	}
	return r.find(ctx, filter)
}

// IncompleteByWeekDay returns the unfinished row at a (week, day) position.
func (r *mongoProgramRepository) IncompleteByWeekDay(ctx context.Context, profileID primitive.ObjectID, personalized bool, week, day int) (*domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"isComplete":     false,
		"week":           week,
		"day":            day,
	}
	var design domain.UserProgramDesign
	err := r.collection.FindOne(ctx, filter).Decode(&design)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &design, nil
}

// LastBefore returns the latest row dated strictly before cutoff.
func (r *mongoProgramRepository) LastBefore(ctx context.Context, profileID primitive.ObjectID, personalized bool, cutoff time.Time) (*domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"workoutDate":    bson.M{"$lt": cutoff},
	}
	return r.findLast(ctx, filter)
}

// LastCompletedBefore returns the run's latest completed row before cutoff.
func (r *mongoProgramRepository) LastCompletedBefore(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, cutoff time.Time) (*domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"startDate":      startDate,
		"isComplete":     true,
		"workoutDate":    bson.M{"$lt": cutoff},
	}
	return r.findLast(ctx, filter)
}

// CountBetween counts rows, complete or not, dated within [from, to].
func (r *mongoProgramRepository) CountBetween(ctx context.Context, profileID primitive.ObjectID, personalized bool, from, to time.Time) (int, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"workoutDate":    bson.M{"$gte": from, "$lte": to},
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	return int(n), err
}

// IncompleteInRunBetween returns the run's unfinished rows dated in [from, to].
func (r *mongoProgramRepository) IncompleteInRunBetween(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, from, to time.Time) ([]domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"startDate":      startDate,
		"isComplete":     false,
		"workoutDate":    bson.M{"$gte": from, "$lte": to},
	}
	return r.find(ctx, filter)
}

// InRunFrom returns all of the run's rows dated on or after from.
func (r *mongoProgramRepository) InRunFrom(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, from time.Time) ([]domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"startDate":      startDate,
		"workoutDate":    bson.M{"$gte": from},
	}
	return r.find(ctx, filter)
}

// RunWeek returns every row of one week of the run.
func (r *mongoProgramRepository) RunWeek(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate time.Time, week int) ([]domain.UserProgramDesign, error) {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"startDate":      startDate,
		"week":           week,
	}
	return r.find(ctx, filter)
}

// UpdateEndDate rewrites the run-wide end date on every row of a run.
func (r *mongoProgramRepository) UpdateEndDate(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, endDate time.Time) error {
	filter := bson.M{
		"userProfileId":  profileID,
		"isPersonalized": personalized,
		"startDate":      startDate,
	}
	update := bson.M{
		"$set": bson.M{
			"endDate":   endDate,
			"updatedAt": time.Now().UTC(),
		},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// findLast fetches the chronologically last row matching filter.
func (r *mongoProgramRepository) findLast(ctx context.Context, filter bson.M) (*domain.UserProgramDesign, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "workoutDate", Value: -1},
		{Key: "day", Value: -1},
	})
	var design domain.UserProgramDesign
	err := r.collection.FindOne(ctx, filter, opts).Decode(&design)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &design, nil
}

func (r *mongoProgramRepository) find(ctx context.Context, filter bson.M) ([]domain.UserProgramDesign, error) {
	cursor, err := r.collection.Find(ctx, filter, dateOrder)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domain.UserProgramDesign
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, cursor.Err()
}

// EnsureProgramIndexes creates the indexes the scheduler queries rely on.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userProfileId", Value: 1},
				{Key: "isPersonalized", Value: 1},
				{Key: "isComplete", Value: 1},
				{Key: "workoutDate", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "userProfileId", Value: 1},
				{Key: "week", Value: 1},
				{Key: "day", Value: 1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logrus.WithError(err).Warnf("failed to create indexes for collection %s", collection.Name())
	}
}

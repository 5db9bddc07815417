package repository

import (
	"context"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors from driver errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TransactionRunner executes fn atomically. Implementations back it with a
// database transaction; test fakes may simply call fn.
type TransactionRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with account data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ProfileRepository defines the interface for user profile data.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.UserProfile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserProfile, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
	Update(ctx context.Context, profile *domain.UserProfile) error
	SetHasActiveProgram(ctx context.Context, id primitive.ObjectID, active bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// EntryFilter narrows catalog entries to those matching one program slot.
// ClassificationID and VarianceID are matched exactly when set, including
// matching entries that leave them unset when nil.
type EntryFilter struct {
	BodyPartID         primitive.ObjectID
	ClassificationID   *primitive.ObjectID
	VarianceID         *primitive.ObjectID
	EquipmentOptionIDs []primitive.ObjectID
}

// CatalogRepository reads the admin-authored control program: equipment
// options, session lengths, workout flows, program slots and catalog entries.
// All listings return documents in creation order; that ordering is part of
// the matching contract.
type CatalogRepository interface {
	EquipmentOptions(ctx context.Context) ([]domain.EquipmentOption, error)
	SessionLengths(ctx context.Context, optionID, goalID primitive.ObjectID, totalLength float64) ([]domain.SessionLength, error)
	// WorkoutFlows returns the flows of a session length that carry a
	// non-empty sort value.
	WorkoutFlows(ctx context.Context, sessionLengthID primitive.ObjectID) ([]domain.WorkoutFlow, error)
	ProgramSlots(ctx context.Context, workoutFlowID primitive.ObjectID, sessionsPerWeek int) ([]domain.ProgramSlot, error)
	Entries(ctx context.Context, filter EntryFilter) ([]domain.CatalogEntry, error)
	GoalByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error)
}

// RepsRepository reads the reps-range and reps-in-reserve configuration.
type RepsRepository interface {
	RangesByGoal(ctx context.Context, goalID primitive.ObjectID) ([]domain.RepsRange, error)
	RIRByGoalAndLevel(ctx context.Context, goalID, fitnessLevelID primitive.ObjectID) (*domain.RepsInReserve, error)
}

// ProgramFilter narrows a program listing. Nil fields are not applied.
type ProgramFilter struct {
	UserProfileID primitive.ObjectID
	Week          *int
	StartDate     *time.Time
	EndDate       *time.Time
}

// ProgramRepository stores generated program rows, one per workout date.
type ProgramRepository interface {
	CreateMany(ctx context.Context, designs []domain.UserProgramDesign) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserProgramDesign, error)
	List(ctx context.Context, filter ProgramFilter) ([]domain.UserProgramDesign, error)
	Update(ctx context.Context, design *domain.UserProgramDesign) error
	// DeleteIncomplete removes all unfinished rows of a profile's runs with
	// the given personalization flag. Completed rows are never touched.
	DeleteIncomplete(ctx context.Context, profileID primitive.ObjectID, personalized bool) error
	// IncompleteBefore returns unfinished rows dated strictly before the
	// cutoff, oldest first.
	IncompleteBefore(ctx context.Context, profileID primitive.ObjectID, personalized bool, cutoff time.Time) ([]domain.UserProgramDesign, error)
	// IncompleteFrom returns unfinished rows dated on or after from, in
	// date order.
	IncompleteFrom(ctx context.Context, profileID primitive.ObjectID, personalized bool, from time.Time) ([]domain.UserProgramDesign, error)
	// IncompleteByWeekDay returns the unfinished row at a (week, day)
	// position of the active run, if any.
	IncompleteByWeekDay(ctx context.Context, profileID primitive.ObjectID, personalized bool, week, day int) (*domain.UserProgramDesign, error)
	// LastBefore returns the latest row dated strictly before cutoff,
	// complete or not.
	LastBefore(ctx context.Context, profileID primitive.ObjectID, personalized bool, cutoff time.Time) (*domain.UserProgramDesign, error)
	// LastCompletedBefore returns the latest completed row of the run
	// identified by startDate, dated strictly before cutoff.
	LastCompletedBefore(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, cutoff time.Time) (*domain.UserProgramDesign, error)
	// CountBetween counts rows, complete or not, dated within [from, to].
	CountBetween(ctx context.Context, profileID primitive.ObjectID, personalized bool, from, to time.Time) (int, error)
	// IncompleteInRunBetween returns the run's unfinished rows dated within
	// [from, to], in date order.
	IncompleteInRunBetween(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, from, to time.Time) ([]domain.UserProgramDesign, error)
	// InRunFrom returns all of the run's rows, complete or not, dated on or
	// after from.
	InRunFrom(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, from time.Time) ([]domain.UserProgramDesign, error)
	// RunWeek returns every row of one week of the run, in day order.
	RunWeek(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate time.Time, week int) ([]domain.UserProgramDesign, error)
	// UpdateEndDate rewrites the run-wide end date on every row of the run
	// identified by its start date.
	UpdateEndDate(ctx context.Context, profileID primitive.ObjectID, personalized bool, startDate, endDate time.Time) error
}

// ConfigRepository reads admin key/value settings, e.g. the default goal for
// non-personalized programs.
type ConfigRepository interface {
	Value(ctx context.Context, key string) (string, error)
}

// FeedbackRepository stores questionnaire answers; one row per
// (profile, feedback, program row), updated in place on resubmission.
type FeedbackRepository interface {
	Upsert(ctx context.Context, feedback *domain.UserFeedback) error
	ListByProfile(ctx context.Context, profileID primitive.ObjectID) ([]domain.UserFeedback, error)
}

// DeviceRepository stores push registration tokens.
type DeviceRepository interface {
	Upsert(ctx context.Context, registration *domain.DeviceRegistration) error
	ListAll(ctx context.Context) ([]domain.DeviceRegistration, error)
	DeleteByToken(ctx context.Context, token string) error
}

package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// === In-memory repository fakes ===

type memDB struct {
	profiles map[primitive.ObjectID]*domain.UserProfile
	options  []domain.EquipmentOption
	lengths  []domain.SessionLength
	flows    map[primitive.ObjectID][]domain.WorkoutFlow
	slots    map[primitive.ObjectID][]domain.ProgramSlot
	entries  []domain.CatalogEntry
	goals    map[primitive.ObjectID]domain.Goal
	ranges   map[primitive.ObjectID][]domain.RepsRange
	rirs     []domain.RepsInReserve
	config   map[string]string
	rows     []domain.UserProgramDesign
}

func newMemDB() *memDB {
	return &memDB{
		profiles: make(map[primitive.ObjectID]*domain.UserProfile),
		flows:    make(map[primitive.ObjectID][]domain.WorkoutFlow),
		slots:    make(map[primitive.ObjectID][]domain.ProgramSlot),
		goals:    make(map[primitive.ObjectID]domain.Goal),
		ranges:   make(map[primitive.ObjectID][]domain.RepsRange),
		config:   make(map[string]string),
	}
}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeProfiles struct{ db *memDB }

func (f *fakeProfiles) Create(_ context.Context, profile *domain.UserProfile) (primitive.ObjectID, error) {
	profile.ID = primitive.NewObjectID()
	f.db.profiles[profile.ID] = profile
	return profile.ID, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id primitive.ObjectID) (*domain.UserProfile, error) {
	p, ok := f.db.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	for _, p := range f.db.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfiles) Update(_ context.Context, profile *domain.UserProfile) error {
	if _, ok := f.db.profiles[profile.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *profile
	f.db.profiles[profile.ID] = &cp
	return nil
}

func (f *fakeProfiles) SetHasActiveProgram(_ context.Context, id primitive.ObjectID, active bool) error {
	p, ok := f.db.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.HasActiveProgram = active
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.db.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.profiles, id)
	return nil
}

type fakeCatalog struct{ db *memDB }

func (f *fakeCatalog) EquipmentOptions(_ context.Context) ([]domain.EquipmentOption, error) {
	return f.db.options, nil
}

func (f *fakeCatalog) SessionLengths(_ context.Context, optionID, goalID primitive.ObjectID, totalLength float64) ([]domain.SessionLength, error) {
	var out []domain.SessionLength
	for _, l := range f.db.lengths {
		if l.EquipmentOptionID == optionID && l.GoalID == goalID && l.TotalSessionLength == totalLength {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeCatalog) WorkoutFlows(_ context.Context, sessionLengthID primitive.ObjectID) ([]domain.WorkoutFlow, error) {
	var out []domain.WorkoutFlow
	for _, flow := range f.db.flows[sessionLengthID] {
		if flow.Value != "" {
			out = append(out, flow)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ProgramSlots(_ context.Context, workoutFlowID primitive.ObjectID, sessionsPerWeek int) ([]domain.ProgramSlot, error) {
	var out []domain.ProgramSlot
	for _, slot := range f.db.slots[workoutFlowID] {
		if slot.SessionsPerWeek == sessionsPerWeek {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Entries(_ context.Context, filter repository.EntryFilter) ([]domain.CatalogEntry, error) {
	inOptions := func(id primitive.ObjectID) bool {
		for _, opt := range filter.EquipmentOptionIDs {
			if opt == id {
				return true
			}
		}
		return false
	}
	ptrMatch := func(want, got *primitive.ObjectID) bool {
		if want == nil || got == nil {
			return want == nil && got == nil
		}
		return *want == *got
	}
	var out []domain.CatalogEntry
	for _, e := range f.db.entries {
		if e.BodyPartID != filter.BodyPartID {
			continue
		}
		if !ptrMatch(filter.ClassificationID, e.ClassificationID) || !ptrMatch(filter.VarianceID, e.VarianceID) {
			continue
		}
		if !inOptions(e.EquipmentOptionID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeCatalog) GoalByID(_ context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	g, ok := f.db.goals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

type fakeReps struct{ db *memDB }

func (f *fakeReps) RangesByGoal(_ context.Context, goalID primitive.ObjectID) ([]domain.RepsRange, error) {
	return f.db.ranges[goalID], nil
}

func (f *fakeReps) RIRByGoalAndLevel(_ context.Context, goalID, fitnessLevelID primitive.ObjectID) (*domain.RepsInReserve, error) {
	for _, rir := range f.db.rirs {
		if rir.GoalID == goalID && rir.FitnessLevelID == fitnessLevelID {
			cp := rir
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeConfig struct{ db *memDB }

func (f *fakeConfig) Value(_ context.Context, key string) (string, error) {
	v, ok := f.db.config[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

type fakePrograms struct{ db *memDB }

func sortRows(rows []domain.UserProgramDesign) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].WorkoutDate.Equal(rows[j].WorkoutDate) {
			return rows[i].WorkoutDate.Before(rows[j].WorkoutDate)
		}
		return rows[i].Day < rows[j].Day
	})
}

func (f *fakePrograms) matching(profileID primitive.ObjectID, personalized bool, pred func(*domain.UserProgramDesign) bool) []domain.UserProgramDesign {
	var out []domain.UserProgramDesign
	for i := range f.db.rows {
		r := &f.db.rows[i]
		if r.UserProfileID != profileID || r.IsPersonalized != personalized {
			continue
		}
		if pred != nil && !pred(r) {
			continue
		}
		out = append(out, *r)
	}
	sortRows(out)
	return out
}

func (f *fakePrograms) CreateMany(_ context.Context, designs []domain.UserProgramDesign) error {
	for _, d := range designs {
		if d.ID == primitive.NilObjectID {
			d.ID = primitive.NewObjectID()
		}
		f.db.rows = append(f.db.rows, d)
	}
	return nil
}

func (f *fakePrograms) GetByID(_ context.Context, id primitive.ObjectID) (*domain.UserProgramDesign, error) {
	for i := range f.db.rows {
		if f.db.rows[i].ID == id {
			cp := f.db.rows[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePrograms) List(_ context.Context, filter repository.ProgramFilter) ([]domain.UserProgramDesign, error) {
	var out []domain.UserProgramDesign
	for i := range f.db.rows {
		r := &f.db.rows[i]
		if r.UserProfileID != filter.UserProfileID {
			continue
		}
		if filter.Week != nil && r.Week != *filter.Week {
			continue
		}
		if filter.StartDate != nil && r.WorkoutDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && r.WorkoutDate.After(*filter.EndDate) {
			continue
		}
		out = append(out, *r)
	}
	sortRows(out)
	return out, nil
}

func (f *fakePrograms) Update(_ context.Context, design *domain.UserProgramDesign) error {
	for i := range f.db.rows {
		if f.db.rows[i].ID == design.ID {
			f.db.rows[i] = *design
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakePrograms) DeleteIncomplete(_ context.Context, profileID primitive.ObjectID, personalized bool) error {
	kept := f.db.rows[:0]
	for _, r := range f.db.rows {
		if r.UserProfileID == profileID && r.IsPersonalized == personalized && !r.IsComplete {
			continue
		}
		kept = append(kept, r)
	}
	f.db.rows = kept
	return nil
}

func (f *fakePrograms) IncompleteBefore(_ context.Context, profileID primitive.ObjectID, personalized bool, cutoff time.Time) ([]domain.UserProgramDesign, error) {
	return f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return !r.IsComplete && r.WorkoutDate.Before(cutoff)
	}), nil
}

func (f *fakePrograms) IncompleteFrom(_ context.Context, profileID primitive.ObjectID, personalized bool, from time.Time) ([]domain.UserProgramDesign, error) {
	return f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return !r.IsComplete && !r.WorkoutDate.Before(from)
	}), nil
}

func (f *fakePrograms) IncompleteByWeekDay(_ context.Context, profileID primitive.ObjectID, personalized bool, week, day int) (*domain.UserProgramDesign, error) {
	rows := f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return !r.IsComplete && r.Week == week && r.Day == day
	})
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

func (f *fakePrograms) LastBefore(_ context.Context, profileID primitive.ObjectID, personalized bool, cutoff time.Time) (*domain.UserProgramDesign, error) {
	rows := f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return r.WorkoutDate.Before(cutoff)
	})
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[len(rows)-1], nil
}

func (f *fakePrograms) LastCompletedBefore(_ context.Context, profileID primitive.ObjectID, personalized bool, startDate, cutoff time.Time) (*domain.UserProgramDesign, error) {
	rows := f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return r.IsComplete && r.StartDate.Equal(startDate) && r.WorkoutDate.Before(cutoff)
	})
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[len(rows)-1], nil
}

func (f *fakePrograms) CountBetween(_ context.Context, profileID primitive.ObjectID, personalized bool, from, to time.Time) (int, error) {
	rows := f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return !r.WorkoutDate.Before(from) && !r.WorkoutDate.After(to)
	})
	return len(rows), nil
}

func (f *fakePrograms) IncompleteInRunBetween(_ context.Context, profileID primitive.ObjectID, personalized bool, startDate, from, to time.Time) ([]domain.UserProgramDesign, error) {
	return f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return !r.IsComplete && r.StartDate.Equal(startDate) &&
			!r.WorkoutDate.Before(from) && !r.WorkoutDate.After(to)
	}), nil
}

func (f *fakePrograms) InRunFrom(_ context.Context, profileID primitive.ObjectID, personalized bool, startDate, from time.Time) ([]domain.UserProgramDesign, error) {
	return f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return r.StartDate.Equal(startDate) && !r.WorkoutDate.Before(from)
	}), nil
}

func (f *fakePrograms) RunWeek(_ context.Context, profileID primitive.ObjectID, personalized bool, startDate time.Time, week int) ([]domain.UserProgramDesign, error) {
	rows := f.matching(profileID, personalized, func(r *domain.UserProgramDesign) bool {
		return r.StartDate.Equal(startDate) && r.Week == week
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	return rows, nil
}

func (f *fakePrograms) UpdateEndDate(_ context.Context, profileID primitive.ObjectID, personalized bool, startDate, endDate time.Time) error {
	for i := range f.db.rows {
		r := &f.db.rows[i]
		if r.UserProfileID == profileID && r.IsPersonalized == personalized && r.StartDate.Equal(startDate) {
			r.EndDate = endDate
		}
	}
	return nil
}

// === Fixture ===

type fixture struct {
	db          *memDB
	svc         ProgramService
	profile     *domain.UserProfile
	now         time.Time
	goalID      primitive.ObjectID
	bodyPartID  primitive.ObjectID
	noneID      primitive.ObjectID
	oneWeightID primitive.ObjectID
	equipmentID primitive.ObjectID
}

// newFixture wires a service over the in-memory fakes with a minimal but
// complete catalog: one goal, one session length, one flow, one day-1 slot
// and one dumbbell exercise the profile is eligible for. The service clock is
// pinned so date arithmetic in assertions is exact.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()

	f := &fixture{
		db:          db,
		now:         time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		goalID:      primitive.NewObjectID(),
		bodyPartID:  primitive.NewObjectID(),
		noneID:      primitive.NewObjectID(),
		oneWeightID: primitive.NewObjectID(),
		equipmentID: primitive.NewObjectID(),
	}

	db.options = []domain.EquipmentOption{
		{ID: f.noneID, Name: "None"},
		{ID: f.oneWeightID, Name: "1 weight"},
	}
	db.goals[f.goalID] = domain.Goal{ID: f.goalID, Name: "Muscle Building"}

	length := domain.SessionLength{
		ID:                 primitive.NewObjectID(),
		TotalSessionLength: 45,
		EquipmentOptionID:  f.oneWeightID,
		GoalID:             f.goalID,
		GoalName:           "Muscle Building",
		TotalSets:          2,
		WorkoutTime:        40,
		RestTime:           60,
		WarmUpTime:         120,
	}
	db.lengths = []domain.SessionLength{length}

	flow := domain.WorkoutFlow{
		ID:              primitive.NewObjectID(),
		Name:            "Main",
		Value:           "1",
		SessionLengthID: length.ID,
	}
	db.flows[length.ID] = []domain.WorkoutFlow{flow}

	db.slots[flow.ID] = []domain.ProgramSlot{{
		ID:              primitive.NewObjectID(),
		WorkoutFlowID:   flow.ID,
		SessionsPerWeek: 3,
		Day:             1,
		BodyPartID:      f.bodyPartID,
		BodyPartName:    "Legs",
	}}

	db.entries = []domain.CatalogEntry{{
		ID:                primitive.NewObjectID(),
		EquipmentOptionID: f.oneWeightID,
		BodyPartID:        f.bodyPartID,
		Exercise:          "Goblet Squat",
		Reps:              10,
		Weight:            20,
		Formulas: []domain.Formula{
			{Type: domain.TierFSC, WeightExpr: "{Weight} * 0.5", RepsExpr: "10"},
		},
		Combinations: []domain.EquipmentCombination{{
			ID:        primitive.NewObjectID(),
			Name:      "Dumbbell",
			Equipment: []domain.EquipmentRef{{ID: f.equipmentID, Name: "Dumbbell"}},
		}},
	}}

	ratings := []domain.RepsRating{
		{Rating: -1, Weight: 0, Reps: 2},
		{Rating: 0, Weight: 0, Reps: 0},
		{Rating: 1, Weight: 1, Reps: -2},
	}
	db.ranges[f.goalID] = []domain.RepsRange{
		{GoalID: f.goalID, Value: 8, RangeName: "8", Ratings: ratings},
		{GoalID: f.goalID, Value: 10, RangeName: "10", Ratings: ratings},
		{GoalID: f.goalID, Value: 12, RangeName: "12", Ratings: ratings},
	}

	fitnessLevelID := primitive.NewObjectID()
	db.rirs = []domain.RepsInReserve{{
		GoalID:         f.goalID,
		FitnessLevelID: fitnessLevelID,
		Weeks: []domain.WeekRIR{
			{Week: 1, RIR: 2},
			{Week: 2, RIR: 1},
		},
	}}

	f.profile = &domain.UserProfile{
		ID:               primitive.NewObjectID(),
		UserID:           primitive.NewObjectID(),
		FitnessLevelID:   fitnessLevelID,
		FitnessLevel:     2,
		GoalID:           f.goalID,
		SessionsPerWeek:  3,
		MaxSessionLength: 45,
		IsPersonalized:   true,
		Equipment: []domain.EquipmentHolding{{
			EquipmentID:   f.equipmentID,
			EquipmentName: "Dumbbell",
			OptionID:      f.oneWeightID,
			OptionName:    "1 weight",
			Weights:       []float64{20, 40},
			WeightUnit:    domain.UnitKg,
		}},
		Variables: []domain.StandardVariableValue{
			{Name: "Weight", Value: "80", Unit: "kg"},
		},
	}
	db.profiles[f.profile.ID] = f.profile

	db.config["goal"] = f.goalID.Hex()
	db.config["total_session_length"] = "45"
	db.config["session_per_week"] = "3"

	f.svc = NewProgramService(
		&fakeProfiles{db}, &fakeCatalog{db}, &fakeReps{db},
		&fakePrograms{db}, &fakeConfig{db}, fakeTx{}, nil,
	)
	f.svc.(*programService).now = func() time.Time { return f.now }
	return f
}

// addRow stores a program row directly and returns its id.
func (f *fixture) addRow(row domain.UserProgramDesign) primitive.ObjectID {
	row.ID = primitive.NewObjectID()
	if row.UserProfileID == primitive.NilObjectID {
		row.UserProfileID = f.profile.ID
	}
	row.IsPersonalized = f.profile.IsPersonalized
	f.db.rows = append(f.db.rows, row)
	return row.ID
}

// === Generation ===

func TestGenerateCommitsFullHorizon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Generate(ctx, f.profile.ID, GenerationOptions{Personalized: true})
	require.NoError(t, err)

	// Day 1 resolves to the warm-up plus two working sets.
	require.Len(t, result.Days[1], 3)
	assert.Equal(t, 0, result.Days[1][0].Set)
	assert.Equal(t, 1, result.Days[1][1].Set)
	assert.Equal(t, 2, result.Days[1][2].Set)
	for i, a := range result.Days[1] {
		assert.Equal(t, i+1, a.Position)
		assert.Equal(t, "Goblet Squat", a.Exercise)
	}

	// Working sets: 40kg owned exactly, reps 10 minus the week-1 RIR of 2.
	working := result.Days[1][1]
	assert.Equal(t, 8, working.SystemReps)
	assert.Equal(t, 40.0, working.SystemWeight)

	// Warm-up: 70% of 40 is 28, snapping down to the owned 20 and buying
	// reps back at the catalog ratio.
	warmUp := result.Days[1][0]
	assert.Equal(t, 20.0, warmUp.SystemWeight)
	assert.Equal(t, 12, warmUp.SystemReps)

	// Three dates a week over ten weeks.
	require.Len(t, f.db.rows, 30)
	for _, row := range f.db.rows {
		assert.False(t, row.WorkoutDate.After(row.EndDate), "row dated past the run end")
		assert.True(t, row.EndDate.Equal(result.EndDate))
		switch row.Week {
		case 1:
			assert.Equal(t, 2, row.SystemRIR)
		case 2:
			assert.Equal(t, 1, row.SystemRIR)
		default:
			assert.Equal(t, 0, row.SystemRIR)
		}
	}

	assert.True(t, f.db.profiles[f.profile.ID].HasActiveProgram)
}

func TestGenerateUsesAdminDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Generate(ctx, f.profile.ID, GenerationOptions{Personalized: false})
	require.NoError(t, err)
	require.NotEmpty(t, result.Days[1])

	for _, row := range f.db.rows {
		assert.False(t, row.IsPersonalized)
	}
}

func TestGenerateReplacesUnfinishedRows(t *testing.T) {
	f := newFixture(t)
	now := f.now
	oldStart := now.AddDate(0, 0, -20)

	doneID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, -20), StartDate: oldStart, IsComplete: true})
	staleID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now.AddDate(0, 0, -18), StartDate: oldStart})

	_, err := f.svc.Generate(context.Background(), f.profile.ID, GenerationOptions{Personalized: true})
	require.NoError(t, err)

	// The stale unfinished row is replaced by the new horizon; the completed
	// one stays as history.
	require.Len(t, f.db.rows, 31)
	byID := rowsByID(f.db.rows)
	_, staleKept := byID[staleID]
	assert.False(t, staleKept)
	assert.True(t, byID[doneID].IsComplete)
}

func TestGenerateRejectsBadFrequency(t *testing.T) {
	f := newFixture(t)
	f.profile.SessionsPerWeek = 0

	_, err := f.svc.Generate(context.Background(), f.profile.ID, GenerationOptions{Personalized: true})
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestGenerateExerciseNameClaimedOnce(t *testing.T) {
	f := newFixture(t)
	// A second slot on day 2 targets the same body part; the only matching
	// exercise is claimed by day 1, so day 2 stays empty.
	flowID := f.db.lengths[0].ID
	flow := f.db.flows[flowID][0]
	f.db.slots[flow.ID] = append(f.db.slots[flow.ID], domain.ProgramSlot{
		ID:              primitive.NewObjectID(),
		WorkoutFlowID:   flow.ID,
		SessionsPerWeek: 3,
		Day:             2,
		BodyPartID:      f.bodyPartID,
		BodyPartName:    "Legs",
	})

	result, err := f.svc.Generate(context.Background(), f.profile.ID, GenerationOptions{Personalized: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Days[1])
	assert.Empty(t, result.Days[2])
}

func TestGenerateRecordsInjuryDiagnostics(t *testing.T) {
	f := newFixture(t)
	knee := primitive.NewObjectID()
	f.db.entries[0].Injuries = []domain.InjuryRef{{InjuryID: knee, Name: "Knee"}}
	f.profile.Injuries = []domain.InjurySelection{{InjuryID: knee, InjuryTypeID: primitive.NewObjectID()}}

	result, err := f.svc.Generate(context.Background(), f.profile.ID, GenerationOptions{Personalized: true})
	require.NoError(t, err)
	assert.Empty(t, result.Days[1])
	require.NotEmpty(t, result.Diagnostics[1])
	assert.Contains(t, result.Diagnostics[1][0], "Knee")
}

// === Missed sessions ===

func TestMissedSessionsCountsFromLastCompleted(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now.AddDate(0, 0, -5)

	f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, -5), StartDate: start, IsComplete: true})
	f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now.AddDate(0, 0, -3), StartDate: start})
	f.addRow(domain.UserProgramDesign{Week: 1, Day: 3, WorkoutDate: now.AddDate(0, 0, -1), StartDate: start})
	f.addRow(domain.UserProgramDesign{Week: 2, Day: 1, WorkoutDate: now.AddDate(0, 0, 2), StartDate: start})

	missed, canReschedule, err := f.svc.MissedSessions(context.Background(), f.profile.ID)
	require.NoError(t, err)
	// Three rows since the completed one, minus the completed row itself.
	assert.Equal(t, 2, missed)
	assert.True(t, canReschedule)
}

func TestMissedSessionsResetWhenMostRecentComplete(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now.AddDate(0, 0, -5)

	f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, -3), StartDate: start})
	f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now.AddDate(0, 0, -1), StartDate: start, IsComplete: true})

	missed, canReschedule, err := f.svc.MissedSessions(context.Background(), f.profile.ID)
	require.NoError(t, err)
	assert.Zero(t, missed)
	assert.True(t, canReschedule)
}

func TestMissedSessionsBeyondWindow(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now.AddDate(0, 0, -30)

	f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, -20), StartDate: start})

	missed, canReschedule, err := f.svc.MissedSessions(context.Background(), f.profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, missed)
	assert.False(t, canReschedule)
}

func TestHasWorkoutToday(t *testing.T) {
	f := newFixture(t)
	now := f.now

	today, err := f.svc.HasWorkoutToday(context.Background(), f.profile.ID)
	require.NoError(t, err)
	assert.False(t, today)

	f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now, StartDate: now})

	today, err = f.svc.HasWorkoutToday(context.Background(), f.profile.ID)
	require.NoError(t, err)
	assert.True(t, today)
}

// === Rescheduling ===

func TestPostponeAllShiftsOneDay(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now.AddDate(0, 0, -1)

	doneID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, -1), StartDate: start, IsComplete: true})
	todayID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now, StartDate: start})
	futureID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 3, WorkoutDate: now.AddDate(0, 0, 2), StartDate: start})

	require.NoError(t, f.svc.Reschedule(context.Background(), f.profile.ID, PostponeAll))

	byID := rowsByID(f.db.rows)
	assert.True(t, byID[todayID].WorkoutDate.Equal(now.AddDate(0, 0, 1)))
	assert.True(t, byID[futureID].WorkoutDate.Equal(now.AddDate(0, 0, 3)))
	// Completed rows never move.
	assert.True(t, byID[doneID].WorkoutDate.Equal(now.AddDate(0, 0, -1)))
	// The run-wide end date follows the last shifted row.
	assert.True(t, byID[doneID].EndDate.Equal(now.AddDate(0, 0, 3)))
}

func TestPreponeOnePullsNextWorkoutToToday(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now.AddDate(0, 0, -1)

	nextID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, 2), StartDate: start})
	laterID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now.AddDate(0, 0, 4), StartDate: start})

	require.NoError(t, f.svc.Reschedule(context.Background(), f.profile.ID, PreponeOne))

	byID := rowsByID(f.db.rows)
	assert.True(t, byID[nextID].WorkoutDate.Equal(now))
	assert.True(t, byID[laterID].WorkoutDate.Equal(now.AddDate(0, 0, 4)))
}

func TestPreponeAllShiftsRemainingByGap(t *testing.T) {
	f := newFixture(t)
	f.profile.SessionsPerWeek = 2 // prepone gap of 3 days
	now := f.now
	start := now.AddDate(0, 0, -1)

	firstID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, 1), StartDate: start})
	secondID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now.AddDate(0, 0, 4), StartDate: start})

	require.NoError(t, f.svc.Reschedule(context.Background(), f.profile.ID, PreponeAll))

	byID := rowsByID(f.db.rows)
	// The next workout lands on today, exactly; the sessions behind it each
	// move backward by the frequency's gap.
	assert.True(t, byID[firstID].WorkoutDate.Equal(now))
	assert.True(t, byID[secondID].WorkoutDate.Equal(now.AddDate(0, 0, 1)))
	assert.True(t, byID[firstID].EndDate.Equal(now.AddDate(0, 0, 1)))
}

func TestRescheduleAllShiftsRunWithinWindow(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now.AddDate(0, 0, -6)

	doneID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, -4), StartDate: start, IsComplete: true})
	missedID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now.AddDate(0, 0, -2), StartDate: start})
	doneTodayID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 3, WorkoutDate: now, StartDate: start, IsComplete: true})
	futureID := f.addRow(domain.UserProgramDesign{Week: 2, Day: 1, WorkoutDate: now.AddDate(0, 0, 1), StartDate: start})

	require.NoError(t, f.svc.Reschedule(context.Background(), f.profile.ID, RescheduleAll))

	byID := rowsByID(f.db.rows)
	// Unfinished rows from the first missed session move forward by the lapse.
	assert.True(t, byID[missedID].WorkoutDate.Equal(now))
	assert.True(t, byID[futureID].WorkoutDate.Equal(now.AddDate(0, 0, 3)))
	// Completed rows keep their dates, whether before or inside the shifted
	// stretch.
	assert.True(t, byID[doneID].WorkoutDate.Equal(now.AddDate(0, 0, -4)))
	assert.True(t, byID[doneTodayID].WorkoutDate.Equal(now))
}

func TestRescheduleAllRegeneratesAfterLongLapse(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now.AddDate(0, 0, -25)

	exercises := []domain.ExerciseAssignment{{
		Position: 1, Set: 1, Checked: true, Exercise: "Goblet Squat",
		FlowValue: "1", SystemReps: 8, SystemWeight: 40,
	}}
	f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, -25), StartDate: start, IsComplete: true, Exercises: exercises})
	f.addRow(domain.UserProgramDesign{Week: 1, Day: 2, WorkoutDate: now.AddDate(0, 0, -23), StartDate: start})
	f.addRow(domain.UserProgramDesign{Week: 1, Day: 3, WorkoutDate: now.AddDate(0, 0, -21), StartDate: start})
	f.addRow(domain.UserProgramDesign{Week: 2, Day: 1, WorkoutDate: now.AddDate(0, 0, -18), StartDate: start})

	require.NoError(t, f.svc.Reschedule(context.Background(), f.profile.ID, RescheduleAll))

	// The lapsed run's unfinished rows are gone and a fresh ten-week horizon
	// replaces them, rebuilt from the old run's week-1 content. The completed
	// session stays as history.
	require.Len(t, f.db.rows, 31)
	var kept int
	for _, row := range f.db.rows {
		if row.StartDate.Equal(start) {
			kept++
			assert.True(t, row.IsComplete)
			continue
		}
		assert.False(t, row.IsComplete)
		if row.Day == 1 {
			require.Len(t, row.Exercises, 1)
			assert.Equal(t, "Goblet Squat", row.Exercises[0].Exercise)
		}
	}
	assert.Equal(t, 1, kept)
	assert.True(t, f.db.profiles[f.profile.ID].HasActiveProgram)
}

func TestRescheduleUnknownOp(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Reschedule(context.Background(), f.profile.ID, RescheduleOp("sideways"))
	assert.ErrorIs(t, err, ErrInvalidRescheduleOp)
}

// === RIR feedback ===

func TestRecordRIRAdjustsNextWeek(t *testing.T) {
	f := newFixture(t)
	now := f.now
	start := now

	makeExercises := func() []domain.ExerciseAssignment {
		return []domain.ExerciseAssignment{
			{Position: 1, Set: 0, Checked: true, Exercise: "Goblet Squat", FlowValue: "1",
				SystemReps: 12, SystemWeight: 20, CatalogReps: 10, CatalogWeight: 20},
			{Position: 2, Set: 1, Checked: true, Exercise: "Goblet Squat", FlowValue: "1",
				SystemReps: 8, SystemWeight: 40, CatalogReps: 10, CatalogWeight: 20},
		}
	}
	designID := f.addRow(domain.UserProgramDesign{
		Week: 1, Day: 1, WorkoutDate: now, StartDate: start, Exercises: makeExercises(),
	})
	nextWeekID := f.addRow(domain.UserProgramDesign{
		Week: 2, Day: 1, WorkoutDate: now.AddDate(0, 0, 7), StartDate: start, Exercises: makeExercises(),
	})

	err := f.svc.RecordRIR(context.Background(), f.profile.ID, RIRFeedback{
		ProgramDesignID: designID,
		ExercisePos:     2,
		UserRIR:         1,
		SystemRIR:       2,
		SystemReps:      8,
		SystemWeight:    40,
	})
	require.NoError(t, err)

	byID := rowsByID(f.db.rows)

	// The report lands on the exercise it was given for.
	reported := byID[designID].Exercises[1]
	require.NotNil(t, reported.UserRIR)
	assert.Equal(t, 1, *reported.UserRIR)

	// One RIR under target rates -1: two extra reps at the same weight,
	// applied to next week's first set of the same exercise.
	next := byID[nextWeekID].Exercises[1]
	assert.Equal(t, 10, next.SystemReps)
	assert.Equal(t, 40.0, next.SystemWeight)

	// The current day's other sets (the warm-up) are untouched.
	assert.Equal(t, 12, byID[designID].Exercises[0].SystemReps)
}

func TestRecordRIRAdjustsNextSetSameDay(t *testing.T) {
	f := newFixture(t)
	now := f.now

	exercises := []domain.ExerciseAssignment{
		{Position: 1, Set: 1, Checked: true, Exercise: "Goblet Squat", FlowValue: "1",
			SystemReps: 8, SystemWeight: 40, CatalogReps: 10, CatalogWeight: 20},
		{Position: 2, Set: 2, Checked: true, Exercise: "Goblet Squat", FlowValue: "1",
			SystemReps: 8, SystemWeight: 40, CatalogReps: 10, CatalogWeight: 20},
	}
	designID := f.addRow(domain.UserProgramDesign{
		Week: 1, Day: 1, WorkoutDate: now, StartDate: now, Exercises: exercises,
	})

	err := f.svc.RecordRIR(context.Background(), f.profile.ID, RIRFeedback{
		ProgramDesignID: designID,
		ExercisePos:     1,
		UserRIR:         1,
		SystemRIR:       2,
		SystemReps:      8,
		SystemWeight:    40,
	})
	require.NoError(t, err)

	byID := rowsByID(f.db.rows)
	assert.Equal(t, 10, byID[designID].Exercises[1].SystemReps)
	assert.Equal(t, 40.0, byID[designID].Exercises[1].SystemWeight)
}

func TestRecordRIRPositionOutOfRange(t *testing.T) {
	f := newFixture(t)
	now := f.now
	designID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now, StartDate: now})

	err := f.svc.RecordRIR(context.Background(), f.profile.ID, RIRFeedback{
		ProgramDesignID: designID,
		ExercisePos:     1,
	})
	assert.ErrorIs(t, err, ErrExercisePosition)
}

// === Completion ===

func TestCompleteFinalWorkoutReleasesProfile(t *testing.T) {
	f := newFixture(t)
	f.profile.HasActiveProgram = true
	now := f.now
	end := now.AddDate(0, 0, 63)

	middleID := f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now, StartDate: now, EndDate: end})
	finalID := f.addRow(domain.UserProgramDesign{Week: 10, Day: 3, WorkoutDate: end, StartDate: now, EndDate: end})

	require.NoError(t, f.svc.Complete(context.Background(), f.profile.ID, middleID))
	byID := rowsByID(f.db.rows)
	assert.True(t, byID[middleID].IsComplete)
	assert.True(t, f.db.profiles[f.profile.ID].HasActiveProgram)

	require.NoError(t, f.svc.Complete(context.Background(), f.profile.ID, finalID))
	byID = rowsByID(f.db.rows)
	assert.True(t, byID[finalID].IsComplete)
	assert.False(t, f.db.profiles[f.profile.ID].HasActiveProgram)
}

// === Listing ===

func TestListFiltersByPersonalizationAndWeek(t *testing.T) {
	f := newFixture(t)
	now := f.now

	f.addRow(domain.UserProgramDesign{Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, 1), StartDate: now})
	f.addRow(domain.UserProgramDesign{Week: 2, Day: 1, WorkoutDate: now.AddDate(0, 0, 8), StartDate: now})
	// A row from the other personalization mode never shows up.
	f.db.rows = append(f.db.rows, domain.UserProgramDesign{
		ID: primitive.NewObjectID(), UserProfileID: f.profile.ID,
		Week: 1, Day: 1, WorkoutDate: now.AddDate(0, 0, 1), StartDate: now,
		IsPersonalized: false,
	})

	week := 1
	list, err := f.svc.List(context.Background(), f.profile.ID, ListFilter{Week: &week})
	require.NoError(t, err)
	require.Len(t, list.Programs, 1)
	assert.Equal(t, 1, list.Programs[0].Week)
	assert.True(t, list.Programs[0].IsPersonalized)
	assert.Zero(t, list.MissedSessions)
}

func rowsByID(rows []domain.UserProgramDesign) map[primitive.ObjectID]domain.UserProgramDesign {
	byID := make(map[primitive.ObjectID]domain.UserProgramDesign, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	return byID
}

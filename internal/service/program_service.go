package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/program"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"
	"github.com/Ali3911/Joompa-Gym-App/internal/storage"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProfileNotFound        = errors.New("user profile not found")
	ErrProgramNotFound        = errors.New("program design not found")
	ErrInvalidFrequency       = errors.New("sessions per week must be between 1 and 6")
	ErrRepsRangeMissing       = errors.New("no reps ranges configured for goal")
	ErrRIRNotConfigured       = errors.New("no reps-in-reserve configured for goal and fitness level")
	ErrEquipmentOptionMissing = errors.New("equipment option \"None\" is not configured")
	ErrInvalidRescheduleOp    = errors.New("unknown reschedule operation")
	ErrRatingNotConfigured    = errors.New("no rating row configured for reps range")
	ErrExercisePosition       = errors.New("exercise position out of range")
)

// Config keys used when a program is not personalized.
const (
	configKeyGoal            = "goal"
	configKeySessionLength   = "total_session_length"
	configKeySessionsPerWeek = "session_per_week"
)

// Equipment option names with special meaning during resolution.
const (
	optionNone       = "None"
	optionOneWeight  = "1 weight"
	optionTwoWeights = "2 weights"
)

// RescheduleOp selects one of the calendar repair operations.
type RescheduleOp string

const (
	PreponeOne    RescheduleOp = "preponeone"
	PreponeAll    RescheduleOp = "preponeall"
	PostponeAll   RescheduleOp = "postponeall"
	RescheduleAll RescheduleOp = "rescheduleall"
)

// GenerationOptions carries the request parameters for a generation run.
// For personalized programs everything comes from the profile and the
// overrides are ignored; otherwise missing values fall back to the admin
// config defaults.
type GenerationOptions struct {
	Personalized       bool
	GoalID             *primitive.ObjectID
	SessionsPerWeek    *int
	TotalSessionLength *float64
}

// GenerationResult is the assembled program before and after commit: the
// per-day exercise lists, per-day diagnostics for slots that could not be
// filled, and the run's calendar bounds.
type GenerationResult struct {
	Days        map[int][]domain.ExerciseAssignment `json:"days"`
	Diagnostics map[int][]string                    `json:"diagnostics"`
	StartDate   time.Time                           `json:"startDate"`
	EndDate     time.Time                           `json:"endDate"`
}

// ListFilter narrows a program listing.
type ListFilter struct {
	Week               *int
	StartDate          *time.Time
	EndDate            *time.Time
	Goal               *string
	TotalSessionLength *float64
}

// ProgramList is a listing plus the missed-session banner data.
type ProgramList struct {
	Programs        []domain.UserProgramDesign `json:"programs"`
	MissedSessions  int                        `json:"missedSessions"`
	CanReschedule   bool                       `json:"canReschedule"`
	HasWorkoutToday bool                       `json:"hasWorkoutToday"`
}

// RIRFeedback is a user's reps-in-reserve report for one exercise entry.
type RIRFeedback struct {
	ProgramDesignID primitive.ObjectID `json:"userProgramDesignId"`
	ExercisePos     int                `json:"exerciseId"`
	UserRIR         int                `json:"userRir"`
	SystemRIR       int                `json:"systemRir"`
	SystemReps      int                `json:"systemCalculatedReps"`
	SystemWeight    float64            `json:"systemCalculatedWeight"`
}

// ProgramService generates, lists and maintains workout programs.
type ProgramService interface {
	Generate(ctx context.Context, profileID primitive.ObjectID, opts GenerationOptions) (*GenerationResult, error)
	List(ctx context.Context, profileID primitive.ObjectID, filter ListFilter) (*ProgramList, error)
	Reschedule(ctx context.Context, profileID primitive.ObjectID, op RescheduleOp) error
	RecordRIR(ctx context.Context, profileID primitive.ObjectID, feedback RIRFeedback) error
	Complete(ctx context.Context, profileID, designID primitive.ObjectID) error
	// MissedSessions returns the missed-session count and whether a simple
	// reschedule is still offered.
	MissedSessions(ctx context.Context, profileID primitive.ObjectID) (int, bool, error)
	// HasWorkoutToday reports whether an unfinished workout is dated today.
	HasWorkoutToday(ctx context.Context, profileID primitive.ObjectID) (bool, error)
}

// programService implements ProgramService.
type programService struct {
	profileRepo repository.ProfileRepository
	catalogRepo repository.CatalogRepository
	repsRepo    repository.RepsRepository
	programRepo repository.ProgramRepository
	configRepo  repository.ConfigRepository
	tx          repository.TransactionRunner
	fileStorage storage.FileStorage
	// now supplies the current time for all calendar decisions; tests swap it
	// for a fixed clock.
	now func() time.Time
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	profileRepo repository.ProfileRepository,
	catalogRepo repository.CatalogRepository,
	repsRepo repository.RepsRepository,
	programRepo repository.ProgramRepository,
	configRepo repository.ConfigRepository,
	tx repository.TransactionRunner,
	fileStorage storage.FileStorage,
) ProgramService {
	return &programService{
		profileRepo: profileRepo,
		catalogRepo: catalogRepo,
		repsRepo:    repsRepo,
		programRepo: programRepo,
		configRepo:  configRepo,
		tx:          tx,
		fileStorage: fileStorage,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// runConfig is the fully resolved configuration of one generation pass.
type runConfig struct {
	goalID             primitive.ObjectID
	goalName           string
	sessionsPerWeek    int
	totalSessionLength float64
	personalized       bool
	primaryOptionID    primitive.ObjectID
	optionIDs          []primitive.ObjectID
	noneOptionID       primitive.ObjectID
}

// === Generation ===

// Generate assembles a full program for the profile and commits the 10-week
// horizon atomically. Days that end up empty are reported through the
// diagnostics, not as an error.
func (s *programService) Generate(ctx context.Context, profileID primitive.ObjectID, opts GenerationOptions) (*GenerationResult, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	cfg, err := s.resolveConfig(ctx, profile, opts)
	if err != nil {
		return nil, err
	}
	if cfg.sessionsPerWeek < 1 || cfg.sessionsPerWeek > 6 {
		return nil, ErrInvalidFrequency
	}

	goal, err := s.catalogRepo.GoalByID(ctx, cfg.goalID)
	if err != nil {
		return nil, fmt.Errorf("resolving goal: %w", err)
	}
	cfg.goalName = goal.Name

	ranges, err := s.repsRepo.RangesByGoal(ctx, cfg.goalID)
	if err != nil {
		return nil, err
	}
	repsList := program.BuildRepsList(rangeValues(ranges))
	if repsList == nil {
		return nil, ErrRepsRangeMissing
	}

	rir, err := s.repsRepo.RIRByGoalAndLevel(ctx, cfg.goalID, profile.FitnessLevelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRIRNotConfigured
		}
		return nil, err
	}
	week1RIR := program.WeekRIRTarget(rir.Weeks, 1)
	ownedWeights := profile.OwnedWeights()

	days, diags, err := s.assemble(ctx, profile, cfg, repsList, week1RIR, ownedWeights)
	if err != nil {
		return nil, err
	}

	for day := 1; day <= cfg.sessionsPerWeek; day++ {
		expanded := program.ExpandSets(days[day], ownedWeights)
		program.SortDay(expanded)
		program.NumberPositions(expanded)
		days[day] = expanded
		if len(expanded) == 0 {
			logrus.WithFields(logrus.Fields{
				"profile": profile.ID.Hex(),
				"day":     day,
			}).Warnf("day has no exercises: %v", diags[day])
		}
	}

	now := s.now()
	dates := program.CycleDates(now, cfg.sessionsPerWeek)
	if len(dates) == 0 {
		return nil, ErrInvalidFrequency
	}
	endDate := program.RunEndDate(dates)

	// Unfinished rows of an earlier run are replaced by the new horizon;
	// completed rows stay as history.
	rows := buildRun(profile.ID, cfg.personalized, days, dates, rir.Weeks, now, endDate)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.programRepo.DeleteIncomplete(txCtx, profile.ID, cfg.personalized); err != nil {
			return err
		}
		if err := s.programRepo.CreateMany(txCtx, rows); err != nil {
			return err
		}
		return s.profileRepo.SetHasActiveProgram(txCtx, profile.ID, true)
	})
	if err != nil {
		return nil, err
	}

	s.resolveVideoURLs(ctx, days)

	return &GenerationResult{
		Days:        days,
		Diagnostics: diags,
		StartDate:   now,
		EndDate:     endDate,
	}, nil
}

// resolveConfig merges the request, the profile and the admin defaults into
// the effective run configuration, and resolves the equipment-option set from
// what the user owns.
func (s *programService) resolveConfig(ctx context.Context, profile *domain.UserProfile, opts GenerationOptions) (runConfig, error) {
	cfg := runConfig{personalized: opts.Personalized}

	if opts.Personalized {
		cfg.goalID = profile.GoalID
		cfg.sessionsPerWeek = profile.SessionsPerWeek
		cfg.totalSessionLength = profile.MaxSessionLength
	} else {
		if opts.GoalID != nil {
			cfg.goalID = *opts.GoalID
		} else {
			goalID, err := s.configObjectID(ctx, configKeyGoal)
			if err != nil {
				return cfg, err
			}
			cfg.goalID = goalID
		}
		if opts.SessionsPerWeek != nil {
			cfg.sessionsPerWeek = *opts.SessionsPerWeek
		} else {
			n, err := s.configInt(ctx, configKeySessionsPerWeek)
			if err != nil {
				return cfg, err
			}
			cfg.sessionsPerWeek = n
		}
		if opts.TotalSessionLength != nil {
			cfg.totalSessionLength = *opts.TotalSessionLength
		} else {
			length, err := s.configFloat(ctx, configKeySessionLength)
			if err != nil {
				return cfg, err
			}
			cfg.totalSessionLength = length
		}
	}

	options, err := s.catalogRepo.EquipmentOptions(ctx)
	if err != nil {
		return cfg, err
	}
	byName := make(map[string]primitive.ObjectID, len(options))
	for _, opt := range options {
		byName[opt.Name] = opt.ID
	}
	noneID, ok := byName[optionNone]
	if !ok {
		return cfg, ErrEquipmentOptionMissing
	}
	cfg.noneOptionID = noneID

	owned := make(map[string]struct{}, len(profile.Equipment))
	for _, h := range profile.Equipment {
		owned[h.OptionName] = struct{}{}
	}
	switch {
	case hasKey(owned, optionTwoWeights):
		cfg.primaryOptionID = byName[optionTwoWeights]
		for _, opt := range options {
			cfg.optionIDs = append(cfg.optionIDs, opt.ID)
		}
	case hasKey(owned, optionOneWeight):
		cfg.primaryOptionID = byName[optionOneWeight]
		cfg.optionIDs = []primitive.ObjectID{byName[optionOneWeight], noneID}
	default:
		cfg.primaryOptionID = noneID
		cfg.optionIDs = []primitive.ObjectID{noneID}
	}

	return cfg, nil
}

// assemble walks the catalog hierarchy in creation order and fills each day
// of the weekly template. First eligible entry wins a slot; every rejection
// is recorded against the day the slot folds onto.
func (s *programService) assemble(ctx context.Context, profile *domain.UserProfile, cfg runConfig, repsList []int, week1RIR int, ownedWeights []float64) (map[int][]domain.ExerciseAssignment, map[int][]string, error) {
	days := make(map[int][]domain.ExerciseAssignment, cfg.sessionsPerWeek)
	diags := make(map[int][]string, cfg.sessionsPerWeek)
	for day := 1; day <= cfg.sessionsPerWeek; day++ {
		days[day] = nil
		diags[day] = nil
	}
	// One exercise name is prescribed at most once per run; the name is
	// claimed at first sight even when the entry is later rejected.
	seen := make(map[string]struct{})

	lengths, err := s.catalogRepo.SessionLengths(ctx, cfg.primaryOptionID, cfg.goalID, cfg.totalSessionLength)
	if err != nil {
		return nil, nil, err
	}
	for _, length := range lengths {
		flows, err := s.catalogRepo.WorkoutFlows(ctx, length.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, flow := range flows {
			slots, err := s.catalogRepo.ProgramSlots(ctx, flow.ID, cfg.sessionsPerWeek)
			if err != nil {
				return nil, nil, err
			}
			for _, slot := range slots {
				day := program.DayIndex(cfg.sessionsPerWeek, slot.Day)
				entries, err := s.catalogRepo.Entries(ctx, repository.EntryFilter{
					BodyPartID:         slot.BodyPartID,
					ClassificationID:   slot.ClassificationID,
					VarianceID:         slot.VarianceID,
					EquipmentOptionIDs: cfg.optionIDs,
				})
				if err != nil {
					return nil, nil, err
				}
				if len(entries) == 0 {
					diags[day] = append(diags[day], fmt.Sprintf(
						"no catalog entry for slot %s (body part %s, flow %s)",
						slot.ID.Hex(), slot.BodyPartName, flow.Name))
					continue
				}

				for i := range entries {
					entry := &entries[i]
					if _, dup := seen[entry.Exercise]; dup {
						logrus.WithField("exercise", entry.Exercise).Debug("exercise already prescribed")
						continue
					}
					seen[entry.Exercise] = struct{}{}

					bodyweight := entry.EquipmentOptionID == cfg.noneOptionID
					combination, reason := program.CheckEligibility(entry, profile, bodyweight, cfg.personalized)
					if reason != "" {
						diags[day] = append(diags[day], reason)
						continue
					}

					result, err := program.Calculate(program.CalcInput{
						Entry:        entry,
						Profile:      profile,
						Personalized: cfg.personalized,
						Bodyweight:   bodyweight,
						RIROffset:    week1RIR,
						RepsList:     repsList,
						OwnedWeights: ownedWeights,
						GoalName:     cfg.goalName,
					})
					if err != nil {
						diags[day] = append(diags[day], err.Error())
						continue
					}

					days[day] = append(days[day], buildAssignment(profile, cfg, &length, &flow, &slot, entry, combination, result))
					break
				}
			}
		}
	}

	return days, diags, nil
}

// buildAssignment flattens one slot resolution into the stored exercise entry.
func buildAssignment(profile *domain.UserProfile, cfg runConfig, length *domain.SessionLength, flow *domain.WorkoutFlow, slot *domain.ProgramSlot, entry *domain.CatalogEntry, combination *domain.EquipmentCombination, result program.CalcResult) domain.ExerciseAssignment {
	assignment := domain.ExerciseAssignment{
		SlotID:          slot.ID,
		WorkoutFlowID:   flow.ID,
		SessionLengthID: length.ID,
		Checked:         false,

		Goal:               length.GoalName,
		TotalSets:          length.TotalSets,
		WorkoutTime:        length.WorkoutTime,
		RestTime:           length.RestTime,
		WarmUpTime:         length.WarmUpTime,
		TotalSessionLength: length.TotalSessionLength,

		WorkoutName:     flow.Name,
		FlowValue:       flow.Value,
		SessionsPerWeek: cfg.sessionsPerWeek,

		Exercise:      entry.Exercise,
		IsTwoSided:    entry.IsTwoSided,
		CatalogReps:   entry.Reps,
		CatalogWeight: entry.Weight,

		UserReps:     result.UserReps,
		UserWeight:   result.UserWeight,
		SystemReps:   result.SystemReps,
		SystemWeight: result.SystemWeight,

		Videos: entry.Videos,
	}
	if assignment.Goal == "" {
		assignment.Goal = cfg.goalName
	}

	units := make(map[domain.WeightUnit]struct{})
	for _, h := range profile.Equipment {
		if _, dup := units[h.WeightUnit]; dup {
			continue
		}
		units[h.WeightUnit] = struct{}{}
		assignment.EquipmentTypes = append(assignment.EquipmentTypes, string(h.WeightUnit))
	}

	if combination != nil && len(combination.Equipment) > 0 {
		first := combination.Equipment[0]
		assignment.Equipment = []string{first.Name}
		for _, h := range profile.Equipment {
			if h.EquipmentID == first.ID {
				assignment.EquipmentOption = h.OptionName
				break
			}
		}
	}

	return assignment
}

// buildRun lays the per-day content over the 10-week horizon, one row per
// calendar date. Week RIR targets are read positionally; a short weeks list
// leaves the remaining weeks at 0.
func buildRun(profileID primitive.ObjectID, personalized bool, days map[int][]domain.ExerciseAssignment, dates []time.Time, weeks []domain.WeekRIR, startDate, endDate time.Time) []domain.UserProgramDesign {
	rows := make([]domain.UserProgramDesign, 0, program.HorizonWeeks*len(dates))
	for week := 1; week <= program.HorizonWeeks; week++ {
		systemRIR := 0
		if week-1 < len(weeks) {
			systemRIR = weeks[week-1].RIR
		}
		for i, date := range dates {
			day := i + 1
			rows = append(rows, domain.UserProgramDesign{
				UserProfileID:  profileID,
				Day:            day,
				Exercises:      days[day],
				WorkoutDate:    date.AddDate(0, 0, (week-1)*7),
				Week:           week,
				IsPersonalized: personalized,
				SystemRIR:      systemRIR,
				StartDate:      startDate,
				EndDate:        endDate,
			})
		}
	}
	return rows
}

// === Listing ===

// List returns the profile's program rows plus the missed-session banner.
func (s *programService) List(ctx context.Context, profileID primitive.ObjectID, filter ListFilter) (*ProgramList, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	rows, err := s.programRepo.List(ctx, repository.ProgramFilter{
		UserProfileID: profileID,
		Week:          filter.Week,
		StartDate:     filter.StartDate,
		EndDate:       filter.EndDate,
	})
	if err != nil {
		return nil, err
	}

	filtered := rows[:0]
	for _, row := range rows {
		if row.IsPersonalized != profile.IsPersonalized {
			continue
		}
		if filter.Goal != nil && !rowHasGoal(&row, *filter.Goal) {
			continue
		}
		if filter.TotalSessionLength != nil && !rowHasSessionLength(&row, *filter.TotalSessionLength) {
			continue
		}
		filtered = append(filtered, row)
	}

	for i := range filtered {
		s.resolveRowVideoURLs(ctx, &filtered[i])
	}

	now := s.now()
	missed, canReschedule, err := s.missedSessions(ctx, profile, now)
	if err != nil {
		return nil, err
	}
	today, err := s.hasWorkoutToday(ctx, profile, now)
	if err != nil {
		return nil, err
	}

	return &ProgramList{
		Programs:        filtered,
		MissedSessions:  missed,
		CanReschedule:   canReschedule,
		HasWorkoutToday: today,
	}, nil
}

func rowHasGoal(row *domain.UserProgramDesign, goal string) bool {
	for _, e := range row.Exercises {
		if e.Goal == goal {
			return true
		}
	}
	return false
}

func rowHasSessionLength(row *domain.UserProgramDesign, length float64) bool {
	for _, e := range row.Exercises {
		if e.TotalSessionLength == length {
			return true
		}
	}
	return false
}

// hasWorkoutToday reports whether an unfinished workout is dated today.
func (s *programService) hasWorkoutToday(ctx context.Context, profile *domain.UserProfile, now time.Time) (bool, error) {
	rows, err := s.programRepo.IncompleteFrom(ctx, profile.ID, profile.IsPersonalized, dateFloor(now))
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if sameDate(row.WorkoutDate, now) {
			return true, nil
		}
	}
	return false, nil
}

// missedSessions counts unfinished past workouts and decides whether a simple
// reschedule is still offered. A completed most-recent workout resets the
// count; otherwise the count runs from the last completed session of the run.
func (s *programService) missedSessions(ctx context.Context, profile *domain.UserProfile, now time.Time) (int, bool, error) {
	today := dateFloor(now)

	incomplete, err := s.programRepo.IncompleteBefore(ctx, profile.ID, profile.IsPersonalized, today)
	if err != nil {
		return 0, true, err
	}
	if len(incomplete) == 0 {
		return 0, true, nil
	}

	missed := len(incomplete)
	canReschedule := daysSince(now, incomplete[0].WorkoutDate) <= program.RescheduleWindowDays

	recent, err := s.programRepo.LastBefore(ctx, profile.ID, profile.IsPersonalized, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return missed, canReschedule, nil
		}
		return 0, true, err
	}
	if recent.IsComplete {
		return 0, true, nil
	}

	lastComplete, err := s.programRepo.LastCompletedBefore(ctx, profile.ID, profile.IsPersonalized, recent.StartDate, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return missed, canReschedule, nil
		}
		return 0, true, err
	}

	count, err := s.programRepo.CountBetween(ctx, profile.ID, profile.IsPersonalized, dateFloor(lastComplete.WorkoutDate), today.Add(-time.Nanosecond))
	if err != nil {
		return 0, true, err
	}
	missed = count - 1
	canReschedule = daysSince(now, lastComplete.WorkoutDate) <= program.RescheduleWindowDays
	return missed, canReschedule, nil
}

// === Rescheduling ===

// Reschedule repairs the calendar after missed sessions. All variants run in
// one transaction so a failure leaves the calendar untouched.
func (s *programService) Reschedule(ctx context.Context, profileID primitive.ObjectID, op RescheduleOp) error {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	now := s.now()
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		switch op {
		case PreponeOne:
			return s.preponeOne(txCtx, profile, now)
		case PreponeAll:
			return s.preponeAll(txCtx, profile, now)
		case PostponeAll:
			return s.postponeAll(txCtx, profile, now)
		case RescheduleAll:
			return s.rescheduleAll(txCtx, profile, now)
		default:
			return ErrInvalidRescheduleOp
		}
	})
}

// preponeOne pulls the next upcoming workout onto today.
func (s *programService) preponeOne(ctx context.Context, profile *domain.UserProfile, now time.Time) error {
	rows, err := s.programRepo.IncompleteFrom(ctx, profile.ID, profile.IsPersonalized, now)
	if err != nil || len(rows) == 0 {
		return err
	}
	rows[0].WorkoutDate = now
	return s.programRepo.Update(ctx, &rows[0])
}

// preponeAll pulls the next workout onto today and shifts the sessions behind
// it backward by the frequency's gap. The pulled row keeps today's date.
func (s *programService) preponeAll(ctx context.Context, profile *domain.UserProfile, now time.Time) error {
	perWeek := s.sessionsPerWeek(ctx, profile)
	rows, err := s.programRepo.IncompleteFrom(ctx, profile.ID, profile.IsPersonalized, now)
	if err != nil || len(rows) == 0 {
		return err
	}

	rows[0].WorkoutDate = now
	if err := s.programRepo.Update(ctx, &rows[0]); err != nil {
		return err
	}
	startDate := rows[0].StartDate

	gap := program.PreponeGap(perWeek)
	endDate := rows[0].WorkoutDate
	for i := 1; i < len(rows); i++ {
		rows[i].WorkoutDate = rows[i].WorkoutDate.AddDate(0, 0, -gap)
		endDate = rows[i].WorkoutDate
		if err := s.programRepo.Update(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return s.programRepo.UpdateEndDate(ctx, profile.ID, profile.IsPersonalized, startDate, endDate)
}

// postponeAll pushes every remaining workout, today's included, one day out.
func (s *programService) postponeAll(ctx context.Context, profile *domain.UserProfile, now time.Time) error {
	rows, err := s.programRepo.IncompleteFrom(ctx, profile.ID, profile.IsPersonalized, dateFloor(now))
	if err != nil || len(rows) == 0 {
		return err
	}

	var startDate, endDate time.Time
	for i := range rows {
		rows[i].WorkoutDate = rows[i].WorkoutDate.AddDate(0, 0, 1)
		endDate = rows[i].WorkoutDate
		startDate = rows[i].StartDate
		if err := s.programRepo.Update(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return s.programRepo.UpdateEndDate(ctx, profile.ID, profile.IsPersonalized, startDate, endDate)
}

// rescheduleAll repairs a lapsed program. Up to 14 missed days the run's
// unfinished rows shift forward by the lapse; beyond that the unfinished rows
// are dropped and the run is regenerated from its week-1 content.
func (s *programService) rescheduleAll(ctx context.Context, profile *domain.UserProfile, now time.Time) error {
	today := dateFloor(now)

	recent, err := s.programRepo.LastBefore(ctx, profile.ID, profile.IsPersonalized, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	startDate := recent.StartDate
	rangeStart := startDate
	var lapse int

	if recent.IsComplete {
		lapse = daysSince(now, recent.WorkoutDate)
		rangeStart = recent.WorkoutDate
	} else {
		lastComplete, err := s.programRepo.LastCompletedBefore(ctx, profile.ID, profile.IsPersonalized, startDate, today)
		switch {
		case err == nil:
			lapse = daysSince(now, lastComplete.WorkoutDate)
			rangeStart = lastComplete.WorkoutDate
		case errors.Is(err, repository.ErrNotFound):
			missed, err := s.programRepo.IncompleteInRunBetween(ctx, profile.ID, profile.IsPersonalized, startDate, startDate, today)
			if err != nil {
				return err
			}
			if len(missed) == 0 {
				return nil
			}
			lapse = daysSince(now, missed[0].WorkoutDate)
		default:
			return err
		}
	}

	if lapse <= program.RescheduleWindowDays {
		missed, err := s.programRepo.IncompleteInRunBetween(ctx, profile.ID, profile.IsPersonalized, startDate, dateFloor(rangeStart), now)
		if err != nil || len(missed) == 0 {
			return err
		}
		firstMissedDate := missed[0].WorkoutDate
		forward := daysSince(now, firstMissedDate)

		rows, err := s.programRepo.InRunFrom(ctx, profile.ID, profile.IsPersonalized, startDate, firstMissedDate)
		if err != nil {
			return err
		}
		for i := range rows {
			// Completed sessions keep the date they were actually done on.
			if rows[i].IsComplete {
				continue
			}
			rows[i].WorkoutDate = rows[i].WorkoutDate.AddDate(0, 0, forward)
			if err := s.programRepo.Update(ctx, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	}

	return s.regenerateFromWeekOne(ctx, profile, startDate, now)
}

// regenerateFromWeekOne removes the lapsed run's unfinished rows and rebuilds
// a fresh 10-week horizon reusing the run's week-1 exercise content. Completed
// rows stay as history.
func (s *programService) regenerateFromWeekOne(ctx context.Context, profile *domain.UserProfile, startDate time.Time, now time.Time) error {
	weekOne, err := s.programRepo.RunWeek(ctx, profile.ID, profile.IsPersonalized, startDate, 1)
	if err != nil {
		return err
	}
	if len(weekOne) == 0 {
		return nil
	}

	goalID := profile.GoalID
	if !profile.IsPersonalized {
		goalID, err = s.configObjectID(ctx, configKeyGoal)
		if err != nil {
			return err
		}
	}
	rir, err := s.repsRepo.RIRByGoalAndLevel(ctx, goalID, profile.FitnessLevelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRIRNotConfigured
		}
		return err
	}

	perWeek := s.sessionsPerWeek(ctx, profile)
	dates := program.CycleDates(now, perWeek)
	if len(dates) == 0 {
		return ErrInvalidFrequency
	}
	endDate := program.RunEndDate(dates)

	days := make(map[int][]domain.ExerciseAssignment, len(weekOne))
	for _, row := range weekOne {
		days[row.Day] = row.Exercises
	}

	if err := s.programRepo.DeleteIncomplete(ctx, profile.ID, profile.IsPersonalized); err != nil {
		return err
	}
	rows := buildRun(profile.ID, profile.IsPersonalized, days, dates, rir.Weeks, now, endDate)
	if err := s.programRepo.CreateMany(ctx, rows); err != nil {
		return err
	}
	return s.profileRepo.SetHasActiveProgram(ctx, profile.ID, true)
}

// sessionsPerWeek resolves the weekly frequency for scheduling operations,
// falling back to the admin default for non-personalized programs.
func (s *programService) sessionsPerWeek(ctx context.Context, profile *domain.UserProfile) int {
	if profile.IsPersonalized && profile.SessionsPerWeek > 0 {
		return profile.SessionsPerWeek
	}
	n, err := s.configInt(ctx, configKeySessionsPerWeek)
	if err != nil {
		logrus.WithError(err).Warn("sessions-per-week default missing, assuming 3")
		return 3
	}
	return n
}

// === Feedback ===

// RecordRIR stores the reported RIR on the exercise entry and adjusts the
// next occurrence of the exercise. When no later occurrence exists the
// adjustment is dropped silently.
func (s *programService) RecordRIR(ctx context.Context, profileID primitive.ObjectID, feedback RIRFeedback) error {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	design, err := s.programRepo.GetByID(ctx, feedback.ProgramDesignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}
	if feedback.ExercisePos < 1 || feedback.ExercisePos > len(design.Exercises) {
		return ErrExercisePosition
	}

	current := &design.Exercises[feedback.ExercisePos-1]
	userRIR := feedback.UserRIR
	current.UserRIR = &userRIR
	if err := s.programRepo.Update(ctx, design); err != nil {
		return err
	}

	goalID := profile.GoalID
	if !design.IsPersonalized {
		goalID, err = s.configObjectID(ctx, configKeyGoal)
		if err != nil {
			return err
		}
	}
	ranges, err := s.repsRepo.RangesByGoal(ctx, goalID)
	if err != nil {
		return err
	}
	repsList := program.BuildRepsList(rangeValues(ranges))
	repsRange, ok := program.RangeForReps(ranges, feedback.SystemReps, repsList)
	if !ok {
		return fmt.Errorf("%w: goal %s, reps %d", ErrRepsRangeMissing, goalID.Hex(), feedback.SystemReps)
	}

	rating, ok := repsRange.RatingFor(program.ClampRating(feedback.UserRIR, feedback.SystemRIR))
	if !ok {
		return ErrRatingNotConfigured
	}

	finalWeight, finalReps := program.ApplyRating(rating, feedback.SystemReps, feedback.SystemWeight,
		current.CatalogReps, current.CatalogWeight, profile.OwnedWeights())

	logrus.WithFields(logrus.Fields{
		"profile":     profile.ID.Hex(),
		"design":      design.ID.Hex(),
		"exercise":    current.Exercise,
		"finalWeight": finalWeight,
		"finalReps":   finalReps,
	}).Info("feedback adjustment computed")

	return s.updateNextOccurrence(ctx, profile, design, current, finalWeight, finalReps)
}

// updateNextOccurrence writes the adjusted prescription onto the next set of
// the exercise: the following set of the same flow on the same day, or set 1
// of the same flow and exercise next week on the same weekday.
func (s *programService) updateNextOccurrence(ctx context.Context, profile *domain.UserProfile, design *domain.UserProgramDesign, current *domain.ExerciseAssignment, weight float64, reps int) error {
	nextSet := current.Set + 1
	for i := range design.Exercises {
		e := &design.Exercises[i]
		if e.Set == nextSet && e.FlowValue == current.FlowValue {
			e.SystemReps = reps
			e.SystemWeight = weight
			return s.programRepo.Update(ctx, design)
		}
	}

	next, err := s.programRepo.IncompleteByWeekDay(ctx, profile.ID, design.IsPersonalized, design.Week+1, design.Day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	for i := range next.Exercises {
		e := &next.Exercises[i]
		if e.Set == 1 && e.FlowValue == current.FlowValue && e.Exercise == current.Exercise {
			e.SystemReps = reps
			e.SystemWeight = weight
			logrus.WithFields(logrus.Fields{
				"design":   next.ID.Hex(),
				"exercise": e.Exercise,
			}).Info("feedback adjustment applied to next week")
			return s.programRepo.Update(ctx, next)
		}
	}
	return nil
}

// === Completion ===

// Complete marks a workout done. Completing the run's final date releases the
// profile for a new program.
func (s *programService) Complete(ctx context.Context, profileID, designID primitive.ObjectID) error {
	design, err := s.programRepo.GetByID(ctx, designID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}

	design.IsComplete = true
	if err := s.programRepo.Update(ctx, design); err != nil {
		return err
	}

	if sameDate(design.WorkoutDate, design.EndDate) {
		return s.profileRepo.SetHasActiveProgram(ctx, profileID, false)
	}
	return nil
}

// MissedSessions is the exported form of the missed-session banner data.
func (s *programService) MissedSessions(ctx context.Context, profileID primitive.ObjectID) (int, bool, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, true, ErrProfileNotFound
		}
		return 0, true, err
	}
	return s.missedSessions(ctx, profile, s.now())
}

// HasWorkoutToday reports whether an unfinished workout is dated today.
func (s *programService) HasWorkoutToday(ctx context.Context, profileID primitive.ObjectID) (bool, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrProfileNotFound
		}
		return false, err
	}
	return s.hasWorkoutToday(ctx, profile, s.now())
}

// === Helpers ===

func (s *programService) configObjectID(ctx context.Context, key string) (primitive.ObjectID, error) {
	value, err := s.configRepo.Value(ctx, key)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("config %q: %w", key, err)
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("config %q is not an object id: %w", key, err)
	}
	return id, nil
}

func (s *programService) configInt(ctx context.Context, key string) (int, error) {
	value, err := s.configRepo.Value(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("config %q: %w", key, err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config %q is not an integer: %w", key, err)
	}
	return n, nil
}

func (s *programService) configFloat(ctx context.Context, key string) (float64, error) {
	value, err := s.configRepo.Value(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("config %q: %w", key, err)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("config %q is not a number: %w", key, err)
	}
	return f, nil
}

// resolveVideoURLs swaps stored object keys for presigned download URLs on a
// generation response.
func (s *programService) resolveVideoURLs(ctx context.Context, days map[int][]domain.ExerciseAssignment) {
	for day := range days {
		for i := range days[day] {
			s.presignVideos(ctx, days[day][i].Videos)
		}
	}
}

func (s *programService) resolveRowVideoURLs(ctx context.Context, row *domain.UserProgramDesign) {
	for i := range row.Exercises {
		s.presignVideos(ctx, row.Exercises[i].Videos)
	}
}

func (s *programService) presignVideos(ctx context.Context, videos []domain.Video) {
	if s.fileStorage == nil {
		return
	}
	for i := range videos {
		if videos[i].ObjectKey == "" {
			continue
		}
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, videos[i].ObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			logrus.WithError(err).WithField("objectKey", videos[i].ObjectKey).Warn("failed to presign video URL")
			continue
		}
		videos[i].URL = url
	}
}

func rangeValues(ranges []domain.RepsRange) []int {
	values := make([]int, 0, len(ranges))
	for _, r := range ranges {
		values = append(values, r.Value)
	}
	return values
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// dateFloor truncates to midnight UTC.
func dateFloor(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// daysSince is the whole-day distance from an earlier moment to now, partial
// days rounded up.
func daysSince(now, earlier time.Time) int {
	return int(math.Ceil(now.Sub(earlier).Hours() / 24))
}

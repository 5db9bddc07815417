package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormulaTier identifies which calculation tier a formula belongs to.
type FormulaTier string

const (
	// TierBaseline formulas are evaluated against the user's baseline
	// assessment answers (personalized users only).
	TierBaseline FormulaTier = "Baseline"
	// TierFSC ("first session calculated") formulas are evaluated against
	// persisted standard variables such as body weight.
	TierFSC FormulaTier = "FSC"
)

// EquipmentOption classifies how much loadable equipment an exercise needs,
// e.g. "None", "1 weight", "2 weights".
type EquipmentOption struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Goal is a training goal (e.g. "Muscle Building") that reps ranges and
// session lengths are keyed by.
type Goal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Required  bool               `bson:"required" json:"required"`
	Gender    string             `bson:"gender,omitempty" json:"gender,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FitnessLevel is an admin-authored level on a 1..100 scale.
type FitnessLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Number    int                `bson:"number" json:"number"`
	Level     float64            `bson:"level" json:"level"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SessionLength describes the timing envelope of one session for a
// (total length, equipment option, goal) combination.
type SessionLength struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TotalSessionLength float64            `bson:"totalSessionLength" json:"totalSessionLength"`
	EquipmentOptionID  primitive.ObjectID `bson:"equipmentOptionId" json:"equipmentOptionId"`
	GoalID             primitive.ObjectID `bson:"goalId" json:"goalId"`
	GoalName           string             `bson:"goalName" json:"goalName"`
	TotalSets          int                `bson:"totalSets" json:"totalSets"`
	WorkoutTime        float64            `bson:"workoutTime" json:"workoutTime"`
	RestTime           float64            `bson:"restTime" json:"restTime"`
	WarmUpTime         float64            `bson:"warmUpTime" json:"warmUpTime"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutFlow is one ordered segment of a session (warm up, main lift, ...).
// Value is the sort key used when laying out a day's exercises.
type WorkoutFlow struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Value           string             `bson:"value" json:"value"`
	SessionLengthID primitive.ObjectID `bson:"sessionLengthId" json:"sessionLengthId"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgramSlot is a position in the weekly template awaiting a concrete
// exercise: day N of a given frequency, within a workout flow, targeting a
// body part (optionally narrowed by classification and variance).
type ProgramSlot struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkoutFlowID    primitive.ObjectID  `bson:"workoutFlowId" json:"workoutFlowId"`
	SessionsPerWeek  int                 `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	Day              int                 `bson:"day" json:"day"`
	BodyPartID       primitive.ObjectID  `bson:"bodyPartId" json:"bodyPartId"`
	BodyPartName     string              `bson:"bodyPartName" json:"bodyPartName"`
	ClassificationID *primitive.ObjectID `bson:"classificationId,omitempty" json:"classificationId,omitempty"`
	VarianceID       *primitive.ObjectID `bson:"varianceId,omitempty" json:"varianceId,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Formula is one admin-authored calculation formula attached to a catalog
// entry. The expression strings are the source of truth; Structure mirrors
// them for the admin UI and is not evaluated.
type Formula struct {
	Type            FormulaTier            `bson:"type" json:"type"`
	WeightExpr      string                 `bson:"weightExpr" json:"weightExpr"`
	RepsExpr        string                 `bson:"repsExpr" json:"repsExpr"`
	WeightStructure map[string]interface{} `bson:"weightStructure,omitempty" json:"weightStructure,omitempty"`
	RepsStructure   map[string]interface{} `bson:"repsStructure,omitempty" json:"repsStructure,omitempty"`
}

// Video points at a demonstration video. ObjectKey, when set, is resolved to
// a presigned download URL at read time; URL is used verbatim otherwise.
type Video struct {
	URL       string `bson:"url,omitempty" json:"url,omitempty"`
	ObjectKey string `bson:"s3ObjectKey,omitempty" json:"-"`
}

// EquipmentRef identifies one piece of equipment inside a combination.
type EquipmentRef struct {
	ID   primitive.ObjectID `bson:"id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// EquipmentCombination is one acceptable set of equipment for an exercise.
// A user is eligible when the combination is a subset of what they own;
// combinations are checked in creation order and the first match wins.
type EquipmentCombination struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Equipment []EquipmentRef     `bson:"equipment" json:"equipment"`
}

// InjuryRef is an injury that excludes a catalog entry for affected users.
type InjuryRef struct {
	InjuryID     primitive.ObjectID `bson:"injuryId" json:"injuryId"`
	InjuryTypeID primitive.ObjectID `bson:"injuryTypeId" json:"injuryTypeId"`
	Name         string             `bson:"name" json:"name"`
}

// CatalogEntry is an admin-authored exercise prescription (the control
// program): base reps/weight for an exercise keyed by equipment option, body
// part, optional classification and variance, with its formulas, injury
// exclusions, equipment combinations and demo videos embedded.
type CatalogEntry struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	EquipmentOptionID primitive.ObjectID     `bson:"equipmentOptionId" json:"equipmentOptionId"`
	BodyPartID        primitive.ObjectID     `bson:"bodyPartId" json:"bodyPartId"`
	ClassificationID  *primitive.ObjectID    `bson:"classificationId,omitempty" json:"classificationId,omitempty"`
	VarianceID        *primitive.ObjectID    `bson:"varianceId,omitempty" json:"varianceId,omitempty"`
	Exercise          string                 `bson:"exercise" json:"exercise"`
	IsTwoSided        bool                   `bson:"isTwoSided" json:"isTwoSided"`
	Reps              float64                `bson:"reps" json:"reps"`
	Weight            float64                `bson:"weight" json:"weight"`
	Formulas          []Formula              `bson:"formulas,omitempty" json:"formulas,omitempty"`
	Injuries          []InjuryRef            `bson:"injuries,omitempty" json:"injuries,omitempty"`
	Combinations      []EquipmentCombination `bson:"combinations,omitempty" json:"combinations,omitempty"`
	Videos            []Video                `bson:"videos,omitempty" json:"videos,omitempty"`
	CreatedAt         time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time              `bson:"updatedAt" json:"updatedAt"`
}

// FormulaByTier returns the entry's formula of the given tier, or nil.
func (e *CatalogEntry) FormulaByTier(tier FormulaTier) *Formula {
	for i := range e.Formulas {
		if e.Formulas[i].Type == tier {
			return &e.Formulas[i]
		}
	}
	return nil
}

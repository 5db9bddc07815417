package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeightUnit for equipment holdings.
type WeightUnit string

const (
	UnitKg  WeightUnit = "kg"
	UnitLbs WeightUnit = "lbs"
)

// EquipmentHolding is one piece of equipment a user owns, with the discrete
// loads available for it.
type EquipmentHolding struct {
	EquipmentID     primitive.ObjectID  `bson:"equipmentId" json:"equipmentId"`
	EquipmentName   string              `bson:"equipmentName" json:"equipmentName"`
	EquipmentTypeID *primitive.ObjectID `bson:"equipmentTypeId,omitempty" json:"equipmentTypeId,omitempty"`
	OptionID        primitive.ObjectID  `bson:"equipmentOptionId" json:"equipmentOptionId"`
	OptionName      string              `bson:"equipmentOptionName" json:"equipmentOptionName"`
	Weights         []float64           `bson:"weights,omitempty" json:"weights,omitempty"`
	WeightUnit      WeightUnit          `bson:"weightUnit" json:"weightUnit"`
}

// InjurySelection is one (injury, injury type) pair reported by a user.
type InjurySelection struct {
	InjuryID     primitive.ObjectID `bson:"injuryId" json:"injuryId"`
	InjuryTypeID primitive.ObjectID `bson:"injuryTypeId" json:"injuryTypeId"`
	Name         string             `bson:"name" json:"name"`
}

// StandardVariableValue is a named value usable in formulas, e.g. "Weight"
// for body weight. Values are stored as strings the way users enter them.
type StandardVariableValue struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
	Unit  string `bson:"unit,omitempty" json:"unit,omitempty"`
}

// AssessmentAnswer is one baseline-assessment answer; Question doubles as the
// variable name referenced by Baseline formulas.
type AssessmentAnswer struct {
	Question string `bson:"question" json:"question"`
	Value    string `bson:"value" json:"value"`
}

// UserProfile holds everything the generator needs to know about a user:
// goal, fitness level, session preferences, owned equipment, injuries,
// standard variables and baseline answers.
type UserProfile struct {
	ID               primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID      `bson:"userId" json:"userId"`
	FitnessLevelID   primitive.ObjectID      `bson:"fitnessLevelId,omitempty" json:"fitnessLevelId,omitempty"`
	FitnessLevel     float64                 `bson:"fitnessLevel" json:"fitnessLevel"`
	GymType          string                  `bson:"gymType,omitempty" json:"gymType,omitempty"`
	GoalID           primitive.ObjectID      `bson:"goalId,omitempty" json:"goalId,omitempty"`
	Baseline         []AssessmentAnswer      `bson:"baselineAssessment,omitempty" json:"baselineAssessment,omitempty"`
	SessionsPerWeek  int                     `bson:"sessionsPerWeek,omitempty" json:"sessionsPerWeek,omitempty"`
	MaxSessionLength float64                 `bson:"maxSessionLength,omitempty" json:"maxSessionLength,omitempty"`
	IsPersonalized   bool                    `bson:"isPersonalized" json:"isPersonalized"`
	HasActiveProgram bool                    `bson:"hasActiveProgram" json:"hasActiveProgram"`
	Equipment        []EquipmentHolding      `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Injuries         []InjurySelection       `bson:"injuries,omitempty" json:"injuries,omitempty"`
	Variables        []StandardVariableValue `bson:"standardVariables,omitempty" json:"standardVariables,omitempty"`
	CreatedAt        time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time               `bson:"updatedAt" json:"updatedAt"`
}

// OwnedEquipmentIDs returns the distinct ids of all equipment the user owns.
func (p *UserProfile) OwnedEquipmentIDs() map[primitive.ObjectID]struct{} {
	owned := make(map[primitive.ObjectID]struct{}, len(p.Equipment))
	for _, h := range p.Equipment {
		owned[h.EquipmentID] = struct{}{}
	}
	return owned
}

// OwnedWeights collects every discrete load across all holdings, in holding
// order. Duplicates are kept; closest-weight ties resolve to the first seen.
func (p *UserProfile) OwnedWeights() []float64 {
	var weights []float64
	for _, h := range p.Equipment {
		weights = append(weights, h.Weights...)
	}
	return weights
}

// Variable returns the named standard-variable value, if present.
func (p *UserProfile) Variable(name string) (StandardVariableValue, bool) {
	for _, v := range p.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return StandardVariableValue{}, false
}

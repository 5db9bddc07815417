package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseAssignment is one prescribed set of one exercise on one day.
// Position is the stable 1-based index within the day; Set 0 is the warm-up,
// 1..TotalSets are working sets.
type ExerciseAssignment struct {
	Position        int                `bson:"id" json:"id"`
	SlotID          primitive.ObjectID `bson:"slotId" json:"slotId"`
	WorkoutFlowID   primitive.ObjectID `bson:"workoutFlowId" json:"workoutFlowId"`
	SessionLengthID primitive.ObjectID `bson:"sessionLengthId" json:"sessionLengthId"`
	Set             int                `bson:"set" json:"set"`
	Checked         bool               `bson:"checked" json:"checked"`

	Goal               string  `bson:"goal" json:"goal"`
	TotalSets          int     `bson:"totalSets" json:"totalSets"`
	WorkoutTime        float64 `bson:"workoutTime" json:"workoutTime"`
	RestTime           float64 `bson:"restTime" json:"restTime"`
	WarmUpTime         float64 `bson:"warmUpTime" json:"warmUpTime"`
	TotalSessionLength float64 `bson:"totalSessionLength" json:"totalSessionLength"`

	WorkoutName     string   `bson:"workoutName" json:"workoutName"`
	FlowValue       string   `bson:"flowValue" json:"flowValue"`
	SessionsPerWeek int      `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	EquipmentOption string   `bson:"equipmentOption,omitempty" json:"equipmentOption,omitempty"`
	EquipmentTypes  []string `bson:"equipmentTypes,omitempty" json:"equipmentTypes,omitempty"`
	Equipment       []string `bson:"equipment,omitempty" json:"equipment,omitempty"`

	Exercise      string  `bson:"exercise" json:"exercise"`
	IsTwoSided    bool    `bson:"isTwoSided" json:"isTwoSided"`
	CatalogReps   float64 `bson:"catalogReps" json:"catalogReps"`
	CatalogWeight float64 `bson:"catalogWeight" json:"catalogWeight"`

	UserReps     int     `bson:"userCalculatedReps" json:"userCalculatedReps"`
	UserWeight   float64 `bson:"userCalculatedWeight" json:"userCalculatedWeight"`
	SystemReps   int     `bson:"systemCalculatedReps" json:"systemCalculatedReps"`
	SystemWeight float64 `bson:"systemCalculatedWeight" json:"systemCalculatedWeight"`
	UserRIR      *int    `bson:"userRir,omitempty" json:"userRir,omitempty"`

	Videos []Video `bson:"videos,omitempty" json:"videos,omitempty"`
}

// UserProgramDesign is one dated workout: the resolved exercise list for one
// calendar day of one generation run. StartDate/EndDate span the whole run
// and are identical on every row of it.
type UserProgramDesign struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserProfileID  primitive.ObjectID   `bson:"userProfileId" json:"userProfileId"`
	Day            int                  `bson:"day" json:"day"`
	Exercises      []ExerciseAssignment `bson:"exercises" json:"exercises"`
	WorkoutDate    time.Time            `bson:"workoutDate" json:"workoutDate"`
	IsComplete     bool                 `bson:"isComplete" json:"isComplete"`
	Week           int                  `bson:"week" json:"week"`
	IsPersonalized bool                 `bson:"isPersonalized" json:"isPersonalized"`
	SystemRIR      int                  `bson:"systemRir" json:"systemRir"`
	StartDate      time.Time            `bson:"startDate" json:"startDate"`
	EndDate        time.Time            `bson:"endDate" json:"endDate"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserFeedback is one questionnaire answer tied to a program row; unique per
// (profile, feedback, program row).
type UserFeedback struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserProfileID   primitive.ObjectID `bson:"userProfileId" json:"userProfileId"`
	FeedbackID      primitive.ObjectID `bson:"feedbackId" json:"feedbackId"`
	ProgramDesignID primitive.ObjectID `bson:"programDesignId" json:"programDesignId"`
	Value           int                `bson:"value" json:"value"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DeviceRegistration maps a user profile to a push registration token.
type DeviceRegistration struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserProfileID primitive.ObjectID `bson:"userProfileId" json:"userProfileId"`
	Token         string             `bson:"registrationId" json:"registrationId"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RepsRating holds the weight/reps nudge applied when the user's reported
// RIR differs from the system target by Rating (-3..+3).
type RepsRating struct {
	Rating int `bson:"rating" json:"rating"`
	Weight int `bson:"weight" json:"weight"`
	Reps   int `bson:"reps" json:"reps"`
}

// RepsRange is one valid rep count for a goal, with its feedback ratings.
type RepsRange struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoalID    primitive.ObjectID `bson:"goalId" json:"goalId"`
	Value     int                `bson:"value" json:"value"`
	RangeName string             `bson:"rangeName" json:"rangeName"`
	Ratings   []RepsRating       `bson:"ratings,omitempty" json:"ratings,omitempty"`
}

// RatingFor returns the rating row for a clamped delta, if present.
func (r *RepsRange) RatingFor(rating int) (RepsRating, bool) {
	for _, rr := range r.Ratings {
		if rr.Rating == rating {
			return rr, true
		}
	}
	return RepsRating{}, false
}

// WeekRIR is the system reps-in-reserve target for one week of a program.
type WeekRIR struct {
	Week int `bson:"week" json:"week"`
	RIR  int `bson:"rir" json:"rir"`
}

// RepsInReserve maps a (goal, fitness level) pair to per-week RIR targets,
// one entry per week of the program horizon.
type RepsInReserve struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoalID         primitive.ObjectID `bson:"goalId" json:"goalId"`
	FitnessLevelID primitive.ObjectID `bson:"fitnessLevelId" json:"fitnessLevelId"`
	Weeks          []WeekRIR          `bson:"weeks" json:"weeks"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

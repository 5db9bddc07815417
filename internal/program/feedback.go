package program

import (
	"math"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
)

// ClampRating is the bounded difference between the user's reported RIR and
// the system target for the week. Ratings tables only carry -3..+3.
func ClampRating(userRIR, systemRIR int) int {
	diff := userRIR - systemRIR
	if diff > 3 {
		return 3
	}
	if diff < -3 {
		return -3
	}
	return diff
}

// RangeForReps finds the reps range matching the prescribed rep count. When
// no exact row exists but the count is still inside the goal's valid list,
// the highest-value range stands in for it.
func RangeForReps(ranges []domain.RepsRange, systemReps int, repsList []int) (*domain.RepsRange, bool) {
	var highest *domain.RepsRange
	for i := range ranges {
		if ranges[i].Value == systemReps {
			return &ranges[i], true
		}
		if highest == nil || ranges[i].Value > highest.Value {
			highest = &ranges[i]
		}
	}
	if highest != nil && ValidReps(systemReps, repsList) {
		return highest, true
	}
	return nil, false
}

// ApplyRating turns a feedback rating row into the next prescription for the
// exercise: the nudged weight snapped to owned equipment, with reps
// reproportioned the same way warm-up sets are. Zero-weight prescriptions
// stay at zero weight and only move their reps.
func ApplyRating(rating domain.RepsRating, systemReps int, systemWeight float64,
	catReps, catWeight float64, ownedWeights []float64) (finalWeight float64, finalReps int) {

	newReps := systemReps + rating.Reps
	newWeight := math.Abs(float64(int(systemWeight)) + float64(rating.Weight)*weightStep)

	if int(systemWeight) == 0 {
		return 0, WarmUpAdjustReps(catReps, catWeight, newReps, newWeight, 0)
	}
	closest, ok := ClosestWeight(ownedWeights, newWeight)
	if !ok {
		closest = 0
	}
	return closest, WarmUpAdjustReps(catReps, catWeight, newReps, newWeight, closest)
}

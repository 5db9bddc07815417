package program

import (
	"math"
	"sort"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
)

const warmUpScale = 0.7

// DeriveWarmUp builds the warm-up set for a working set: 70% of the system
// weight snapped to the closest owned load, with reps reproportioned. For
// zero-weight exercises the reps are simply scaled down instead.
func DeriveWarmUp(base domain.ExerciseAssignment, ownedWeights []float64) domain.ExerciseAssignment {
	warmUp := base
	warmUp.Set = 0
	if base.SystemWeight != 0 {
		target := base.SystemWeight * warmUpScale
		if closest, ok := ClosestWeight(ownedWeights, target); ok {
			warmUp.SystemWeight = closest
			warmUp.SystemReps = WarmUpAdjustReps(
				base.CatalogReps, base.CatalogWeight, base.SystemReps, target, closest)
		}
		return warmUp
	}
	warmUp.SystemReps = int(math.Round(float64(base.SystemReps) * warmUpScale))
	return warmUp
}

// ExpandSets turns each base assignment of a day into its full set series:
// the warm-up set, the first working set, then verbatim copies up to
// TotalSets. Base assignments are marked checked as they are expanded so a
// second pass over already-expanded data is a no-op.
func ExpandSets(day []domain.ExerciseAssignment, ownedWeights []float64) []domain.ExerciseAssignment {
	out := make([]domain.ExerciseAssignment, 0, len(day)*2)
	for _, base := range day {
		if base.Checked {
			out = append(out, base)
			continue
		}
		base.Set = 1
		base.Checked = true
		out = append(out, DeriveWarmUp(base, ownedWeights), base)
		for set := 2; set <= base.TotalSets; set++ {
			copySet := base
			copySet.Set = set
			out = append(out, copySet)
		}
	}
	return out
}

// SortDay orders a day's assignments by workout-flow value. The sort is
// stable so the warm-up/working-set series of one exercise stays contiguous.
func SortDay(day []domain.ExerciseAssignment) {
	sort.SliceStable(day, func(i, j int) bool {
		return day[i].FlowValue < day[j].FlowValue
	})
}

// NumberPositions assigns stable 1-based position ids after final ordering.
func NumberPositions(day []domain.ExerciseAssignment) {
	for i := range day {
		day[i].Position = i + 1
	}
}

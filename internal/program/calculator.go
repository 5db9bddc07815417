package program

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/formula"

	"github.com/sirupsen/logrus"
)

// BodyWeightVariable is the standard-variable name formulas use for the
// user's body weight.
const BodyWeightVariable = "Weight"

// weightStep is the load increment the catalog's reps/weight ratios are
// expressed against.
const weightStep = 2.5

// CalcInput carries everything needed to compute starting weight/reps for
// one catalog entry.
type CalcInput struct {
	Entry        *domain.CatalogEntry
	Profile      *domain.UserProfile
	Personalized bool
	// Bodyweight is true when the entry's equipment option is "None";
	// weight calculation and equipment resolution are skipped entirely.
	Bodyweight   bool
	RIROffset    int
	RepsList     []int
	OwnedWeights []float64
	GoalName     string
}

// CalcResult holds the resolved prescription. User values are the raw
// formula outputs; System values are adjusted to owned equipment.
type CalcResult struct {
	UserReps     int
	UserWeight   float64
	SystemReps   int
	SystemWeight float64
}

// Calculate evaluates the entry's formulas for the user and resolves the
// outcome against the owned equipment weights. A non-nil error means the
// entry must be skipped; the error text is the per-slot diagnostic.
// Formula failures inside a tier are logged and degrade to zero rather than
// aborting (the next tier, or the weight check below, decides the outcome).
func Calculate(in CalcInput) (CalcResult, error) {
	entry := in.Entry
	var calcWeight, calcReps int

	if in.Personalized {
		if f := entry.FormulaByTier(domain.TierBaseline); f == nil {
			logrus.WithField("exercise", entry.Exercise).Debug("no baseline formula on catalog entry")
		} else {
			w, r, err := evalBaseline(f, in.Profile, in.Bodyweight)
			if err != nil {
				logrus.WithError(err).WithField("exercise", entry.Exercise).
					Warn("baseline formula failed, falling back")
			} else {
				calcWeight, calcReps = w, r
			}
		}
	}

	if (calcWeight == 0 && in.Personalized && !in.Bodyweight) || !in.Personalized {
		if f := entry.FormulaByTier(domain.TierFSC); f == nil {
			logrus.WithField("exercise", entry.Exercise).Debug("no FSC formula on catalog entry")
		} else {
			w, r, err := evalFSC(f, in.Profile, in.Bodyweight)
			if err != nil {
				logrus.WithError(err).WithField("exercise", entry.Exercise).
					Warn("FSC formula failed")
			} else {
				calcWeight, calcReps = w, r
			}
		}
	}

	if calcWeight <= 0 && !in.Bodyweight {
		return CalcResult{}, fmt.Errorf("calculated weight for %s is %d", entry.Exercise, calcWeight)
	}

	calcReps -= in.RIROffset

	switch {
	case weightOwned(in.OwnedWeights, calcWeight):
		if !ValidReps(calcReps, in.RepsList) {
			return CalcResult{}, fmt.Errorf("calculated reps %d for %s not in %s reps range", calcReps, entry.Exercise, in.GoalName)
		}
		return CalcResult{
			UserReps:     calcReps,
			UserWeight:   float64(calcWeight),
			SystemReps:   calcReps,
			SystemWeight: float64(calcWeight),
		}, nil

	case in.Bodyweight:
		if !ValidReps(calcReps, in.RepsList) {
			return CalcResult{}, fmt.Errorf("calculated reps %d for %s not in %s reps range", calcReps, entry.Exercise, in.GoalName)
		}
		return CalcResult{
			UserReps:     calcReps,
			UserWeight:   float64(calcWeight),
			SystemReps:   calcReps,
			SystemWeight: 0,
		}, nil

	default:
		closest, ok := ClosestWeight(in.OwnedWeights, float64(calcWeight))
		if !ok {
			return CalcResult{}, fmt.Errorf("no owned weights to resolve %s against", entry.Exercise)
		}
		adjusted := AdjustReps(entry.Reps, entry.Weight, calcReps, float64(calcWeight), closest)
		if adjusted <= 0 {
			return CalcResult{}, fmt.Errorf("adjusted reps for %s is %d", entry.Exercise, adjusted)
		}
		if !ValidReps(adjusted, in.RepsList) {
			return CalcResult{}, fmt.Errorf("adjusted reps %d for %s not in %s reps range", adjusted, entry.Exercise, in.GoalName)
		}
		return CalcResult{
			UserReps:     calcReps,
			UserWeight:   float64(calcWeight),
			SystemReps:   adjusted,
			SystemWeight: closest,
		}, nil
	}
}

// evalBaseline evaluates a Baseline formula against the user's standard
// variables and baseline-assessment answers. Any referenced variable with no
// value defaults to 0. Weight evaluation is skipped for bodyweight entries.
func evalBaseline(f *domain.Formula, profile *domain.UserProfile, bodyweight bool) (weight, reps int, err error) {
	if !bodyweight {
		weight, err = evalInt(f.WeightExpr, baselineVars(f.WeightExpr, profile))
		if err != nil {
			return 0, 0, err
		}
	}
	reps, err = evalInt(f.RepsExpr, baselineVars(f.RepsExpr, profile))
	if err != nil {
		return 0, 0, err
	}
	return weight, reps, nil
}

func baselineVars(expr string, profile *domain.UserProfile) map[string]string {
	vars := make(map[string]string)
	referenced := formula.Variables(expr)
	for _, name := range referenced {
		if v, ok := profile.Variable(name); ok {
			vars[name] = v.Value
		}
	}
	for _, answer := range profile.Baseline {
		for _, name := range referenced {
			if answer.Question == name {
				vars[name] = answer.Value
			}
		}
	}
	for _, name := range referenced {
		if _, ok := vars[name]; !ok {
			vars[name] = "0"
		}
	}
	return vars
}

// evalFSC evaluates a first-session-calculated formula. It requires the
// body-weight standard variable; its absence is a data error surfaced to the
// caller. The reps formula may be a plain integer literal.
func evalFSC(f *domain.Formula, profile *domain.UserProfile, bodyweight bool) (weight, reps int, err error) {
	vars, err := fscVars(profile)
	if err != nil {
		return 0, 0, err
	}
	if !bodyweight {
		weight, err = evalInt(f.WeightExpr, vars)
		if err != nil {
			return 0, 0, err
		}
	}
	if formula.IsLiteral(f.RepsExpr) {
		reps, _ = strconv.Atoi(f.RepsExpr)
		return weight, reps, nil
	}
	reps, err = evalInt(f.RepsExpr, vars)
	if err != nil {
		return 0, 0, err
	}
	return weight, reps, nil
}

func fscVars(profile *domain.UserProfile) (map[string]string, error) {
	bodyWeight, ok := profile.Variable(BodyWeightVariable)
	if !ok {
		return nil, fmt.Errorf("standard variable %q not set for profile %s", BodyWeightVariable, profile.ID.Hex())
	}
	return map[string]string{
		BodyWeightVariable: bodyWeight.Value,
		"fitness_level":    strconv.FormatFloat(profile.FitnessLevel, 'f', -1, 64),
	}, nil
}

func evalInt(expr string, vars map[string]string) (int, error) {
	v, err := formula.Eval(expr, vars)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func weightOwned(owned []float64, weight int) bool {
	for _, w := range owned {
		if w == float64(weight) {
			return true
		}
	}
	return false
}

// ClosestWeight returns the owned load nearest to target by absolute
// distance; ties resolve to the earliest element. ok is false when the user
// owns no weights at all.
func ClosestWeight(owned []float64, target float64) (closest float64, ok bool) {
	if len(owned) == 0 {
		return 0, false
	}
	closest = owned[0]
	best := math.Abs(owned[0] - target)
	for _, w := range owned[1:] {
		if d := math.Abs(w - target); d < best {
			best = d
			closest = w
		}
	}
	return closest, true
}

// AdjustReps reproportions reps after snapping a calculated weight to the
// closest owned load. The catalog entry's reps/weight ratio scales how many
// reps one weightStep is worth; floor division mirrors the original
// arithmetic exactly.
func AdjustReps(catReps, catWeight float64, calcReps int, calcWeight, closest float64) int {
	if catWeight == 0 {
		return calcReps
	}
	steps := math.Floor((closest - calcWeight) / weightStep)
	delta := math.Floor(steps * catReps / catWeight)
	return calcReps - int(delta)
}

// WarmUpAdjustReps is the variant used for warm-up sets and feedback
// re-resolution: the raw weight difference (no step division) scaled by the
// catalog ratio. A zero catalog weight leaves reps unchanged.
func WarmUpAdjustReps(catReps, catWeight float64, baseReps int, target, resolved float64) int {
	if catWeight == 0 {
		return baseReps
	}
	delta := math.Floor((resolved - target) * catReps / catWeight)
	return baseReps - int(delta)
}

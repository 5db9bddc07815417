package program

// syntheticRepsHeadroom extends a goal's observed reps values upward so that
// adjustments landing just above the top of the range are not rejected.
// Carried over from the original system; see DESIGN.md for the caveat.
const syntheticRepsHeadroom = 9

// BuildRepsList returns the valid rep counts for a goal: the observed range
// values followed by syntheticRepsHeadroom values above the maximum.
// An empty input yields nil; callers treat that as missing configuration.
func BuildRepsList(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	list := make([]int, 0, len(values)+syntheticRepsHeadroom)
	list = append(list, values...)
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	for v := max + 1; v <= max+syntheticRepsHeadroom; v++ {
		list = append(list, v)
	}
	return list
}

// ValidReps reports whether rep is a member of the goal's reps list.
func ValidReps(rep int, list []int) bool {
	for _, v := range list {
		if v == rep {
			return true
		}
	}
	return false
}

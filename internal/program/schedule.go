package program

import (
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
)

// HorizonWeeks is the number of weeks a generation run schedules at once.
const HorizonWeeks = 10

// RescheduleWindowDays bounds how far behind a user may fall before a simple
// date shift is no longer offered and the run is regenerated instead.
const RescheduleWindowDays = 14

// cyclePattern maps sessions-per-week to (workouts in a row : rest days)
// within the 7-day cycle. Frequencies 5 and 6 share a pattern; 6 therefore
// yields only 5 training dates, which is the long-standing behavior.
var cyclePattern = map[int]struct{ workouts, gaps int }{
	1: {1, 6},
	2: {1, 2},
	3: {1, 1},
	4: {2, 1},
	5: {3, 1},
	6: {3, 1},
}

// preponeGaps is the day gap each later session moves backward by when the
// whole remaining schedule is preponed.
var preponeGaps = map[int]int{1: 6, 2: 3, 3: 1, 4: 1, 5: 1, 6: 1}

// CycleDates lays the week's training dates out over the six days following
// now, honoring the frequency's workout/rest pattern. The i-th returned date
// is cycle day i+1.
func CycleDates(now time.Time, sessionsPerWeek int) []time.Time {
	pattern, ok := cyclePattern[sessionsPerWeek]
	if !ok {
		return nil
	}
	var dates []time.Time
	count := pattern.gaps + 1
	for i := 1; i < 7; i++ {
		if count <= pattern.gaps {
			count++
			continue
		}
		dates = append(dates, now.AddDate(0, 0, i))
		if count <= pattern.workouts {
			count++
		} else {
			count = 1
		}
	}
	return dates
}

// RunEndDate is the last workout date of a full horizon built from the given
// cycle dates.
func RunEndDate(cycleDates []time.Time) time.Time {
	if len(cycleDates) == 0 {
		return time.Time{}
	}
	return cycleDates[len(cycleDates)-1].AddDate(0, 0, (HorizonWeeks-1)*7)
}

// DayIndex folds a template day onto the weekly cycle: days beyond the
// session frequency wrap onto earlier buckets.
func DayIndex(sessionsPerWeek, day int) int {
	if day <= sessionsPerWeek {
		return day
	}
	return day%sessionsPerWeek + 1
}

// PreponeGap returns the backward shift (in days) for prepone-all at the
// given frequency.
func PreponeGap(sessionsPerWeek int) int {
	if gap, ok := preponeGaps[sessionsPerWeek]; ok {
		return gap
	}
	return 1
}

// WeekRIRTarget picks the RIR for a 1-based week from the goal's weekly
// targets, defaulting to 0 when the week is not configured.
func WeekRIRTarget(weeks []domain.WeekRIR, week int) int {
	for _, w := range weeks {
		if w.Week == week {
			return w.RIR
		}
	}
	return 0
}

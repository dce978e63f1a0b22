package analytics

import (
	"github.com/julianstephens/habitlog/internal/utils"
)

// CurrentStreak counts consecutive completed days ending at today. If today
// has no completed log the streak is 0, whatever happened before. The walk
// goes back one calendar day at a time, so a missing day ends the streak
// just like an incomplete one.
func (ix *Index) CurrentStreak(habitID string, today utils.Day) int {
	streak := 0
	for day := today; ix.IsCompleted(habitID, day); day = day.AddDays(-1) {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive completed days in the
// habit's whole history.
func (ix *Index) LongestStreak(habitID string) int {
	logs := ix.sorted[habitID]

	longest, run := 0, 0
	var prev utils.Day
	// Newest first, so each step of a run is exactly one day earlier
	for _, log := range logs {
		if !log.Completed {
			run = 0
			continue
		}
		day := utils.MustParseDay(log.Date)
		if run > 0 && prev.DaysSince(day) == 1 {
			run++
		} else {
			run = 1
		}
		prev = day
		if run > longest {
			longest = run
		}
	}
	return longest
}

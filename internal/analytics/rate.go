package analytics

import (
	"github.com/julianstephens/habitlog/internal/utils"
)

// Windows are the completion-rate windows offered by the CLI and API.
var Windows = []int{7, 30, 90}

// CompletionRate returns the percentage of the trailing window on which the
// habit was completed. The window covers logs dated today-windowDays through
// today inclusive. Days without a log count as incomplete: the denominator is
// always windowDays, never the number of logged days. With no logs in the
// window, or a non-positive window, the rate is 0. The result is clamped to
// [0, 100] because the inclusive window spans windowDays+1 dates.
func (ix *Index) CompletionRate(habitID string, windowDays int, today utils.Day) float64 {
	if windowDays <= 0 {
		return 0
	}

	logs := ix.InRange(habitID, today.AddDays(-windowDays), today)
	if len(logs) == 0 {
		return 0
	}

	completed := 0
	for _, log := range logs {
		if log.Completed {
			completed++
		}
	}

	rate := 100 * float64(completed) / float64(windowDays)
	if rate > 100 {
		return 100
	}
	return rate
}

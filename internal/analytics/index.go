// Package analytics derives completion, streak and rate figures from a
// snapshot of habit logs. Everything here is pure computation over values
// already loaded from a store; nothing blocks or fails on missing data.
package analytics

import (
	"sort"

	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

// Index is a read-only (habitID, day) -> log view over a log snapshot. Build
// it once per batch of queries; lookups are map reads.
type Index struct {
	days   map[string]map[utils.Day]models.HabitLog
	sorted map[string][]models.HabitLog // newest first
}

// NewIndex builds an index over logs. Logs whose date is not a valid
// YYYY-MM-DD day are skipped. If two logs share a slot, the most recently
// updated one wins.
func NewIndex(logs []models.HabitLog) *Index {
	ix := &Index{
		days:   make(map[string]map[utils.Day]models.HabitLog),
		sorted: make(map[string][]models.HabitLog),
	}

	for _, log := range logs {
		day, err := utils.ParseDay(log.Date)
		if err != nil {
			continue
		}
		slots, ok := ix.days[log.HabitID]
		if !ok {
			slots = make(map[utils.Day]models.HabitLog)
			ix.days[log.HabitID] = slots
		}
		if existing, ok := slots[day]; ok && existing.UpdatedAt.After(log.UpdatedAt) {
			continue
		}
		slots[day] = log
	}

	for habitID, slots := range ix.days {
		days := make([]utils.Day, 0, len(slots))
		for d := range slots {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

		ordered := make([]models.HabitLog, len(days))
		for i, d := range days {
			ordered[i] = slots[d]
		}
		ix.sorted[habitID] = ordered
	}

	return ix
}

// ForHabit returns the habit's logs sorted by date descending.
func (ix *Index) ForHabit(habitID string) []models.HabitLog {
	logs := ix.sorted[habitID]
	out := make([]models.HabitLog, len(logs))
	copy(out, logs)
	return out
}

// On returns the log for an exact day.
func (ix *Index) On(habitID string, day utils.Day) (models.HabitLog, bool) {
	log, ok := ix.days[habitID][day]
	return log, ok
}

// InRange returns the habit's logs with start <= date <= end, newest first.
func (ix *Index) InRange(habitID string, start, end utils.Day) []models.HabitLog {
	var out []models.HabitLog
	for _, log := range ix.sorted[habitID] {
		day := utils.MustParseDay(log.Date)
		if day.After(end) {
			continue
		}
		if day.Before(start) {
			break
		}
		out = append(out, log)
	}
	return out
}

// CompletedCount returns how many of the habit's logs are completed.
func (ix *Index) CompletedCount(habitID string) int {
	n := 0
	for _, log := range ix.days[habitID] {
		if log.Completed {
			n++
		}
	}
	return n
}

// IsCompleted reports whether a completed log exists for the habit on day.
// A missing log and a log with Completed == false both answer false.
func (ix *Index) IsCompleted(habitID string, day utils.Day) bool {
	log, ok := ix.On(habitID, day)
	return ok && log.Completed
}

// Filter returns the logs belonging to habitID without building an index.
func Filter(logs []models.HabitLog, habitID string) []models.HabitLog {
	var out []models.HabitLog
	for _, log := range logs {
		if log.HabitID == habitID {
			out = append(out, log)
		}
	}
	return out
}

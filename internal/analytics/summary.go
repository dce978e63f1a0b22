package analytics

import (
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

// Stats summarises a single habit as of today.
func (ix *Index) Stats(habit models.Habit, today utils.Day, windowDays int) models.HabitStats {
	return models.HabitStats{
		HabitID:        habit.ID,
		Name:           habit.Name,
		Type:           habit.Type,
		Date:           today.String(),
		CompletedToday: ix.IsCompleted(habit.ID, today),
		CurrentStreak:  ix.CurrentStreak(habit.ID, today),
		LongestStreak:  ix.LongestStreak(habit.ID),
		WindowDays:     windowDays,
		CompletionRate: ix.CompletionRate(habit.ID, windowDays, today),
		TotalCompleted: ix.CompletedCount(habit.ID),
	}
}

// Progress counts how many of habits were completed on day.
func (ix *Index) Progress(habits []models.Habit, day utils.Day) models.DayProgress {
	p := models.DayProgress{Date: day.String(), Total: len(habits)}
	for _, h := range habits {
		if ix.IsCompleted(h.ID, day) {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Rate = 100 * float64(p.Completed) / float64(p.Total)
	}
	return p
}

// Trend returns the daily progress for the windowDays days ending at today,
// oldest first.
func (ix *Index) Trend(habits []models.Habit, windowDays int, today utils.Day) []models.DayProgress {
	if windowDays <= 0 {
		return nil
	}
	days := utils.DayRange(today.AddDays(-(windowDays - 1)), today)
	trend := make([]models.DayProgress, len(days))
	for i, d := range days {
		trend[i] = ix.Progress(habits, d)
	}
	return trend
}

// ByType aggregates completions per habit type over the windowDays days
// ending at today. The rate is completions over (habits of that type *
// windowDays). Types without habits are omitted.
func (ix *Index) ByType(habits []models.Habit, windowDays int, today utils.Day) []models.TypeBreakdown {
	if windowDays <= 0 {
		return nil
	}
	start := today.AddDays(-(windowDays - 1))

	totals := make(map[models.HabitType]*models.TypeBreakdown)
	for _, h := range habits {
		tb, ok := totals[h.Type]
		if !ok {
			tb = &models.TypeBreakdown{Type: h.Type}
			totals[h.Type] = tb
		}
		tb.Habits++
		for _, log := range ix.InRange(h.ID, start, today) {
			if log.Completed {
				tb.Completed++
			}
		}
	}

	var out []models.TypeBreakdown
	for _, t := range models.HabitTypes {
		tb, ok := totals[t]
		if !ok {
			continue
		}
		tb.Rate = 100 * float64(tb.Completed) / float64(tb.Habits*windowDays)
		out = append(out, *tb)
	}
	return out
}

// Dashboard assembles per-habit stats, today's progress, the per-type
// breakdown and the daily trend from one index.
func (ix *Index) Dashboard(habits []models.Habit, windowDays int, today utils.Day) models.Dashboard {
	d := models.Dashboard{
		Date:       today.String(),
		WindowDays: windowDays,
		Today:      ix.Progress(habits, today),
		Habits:     make([]models.HabitStats, 0, len(habits)),
		ByType:     ix.ByType(habits, windowDays, today),
		Trend:      ix.Trend(habits, windowDays, today),
	}
	for _, h := range habits {
		d.Habits = append(d.Habits, ix.Stats(h, today, windowDays))
	}
	return d
}

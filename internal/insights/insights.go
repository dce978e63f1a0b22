// Package insights turns habit statistics into short coaching suggestions.
package insights

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

type Kind string

const (
	KindNotStarted   Kind = "not_started"
	KindStruggling   Kind = "struggling"
	KindStreakBroken Kind = "streak_broken"
	KindPersonalBest Kind = "personal_best"
	KindConsistent   Kind = "consistent"
)

const (
	strugglingRate   = 30.0
	consistentRate   = 80.0
	minWindowForRate = 7
	notableStreak    = 7
)

// Suggestion is one observation about a habit.
type Suggestion struct {
	HabitID   string `json:"habitId"`
	HabitName string `json:"habitName"`
	Kind      Kind   `json:"kind"`
	Reason    string `json:"reason"`
}

// DashboardSource computes the dashboard an analysis runs on.
type DashboardSource interface {
	Dashboard(ctx context.Context, ownerID string, today utils.Day, windowDays int) (models.Dashboard, error)
}

type Analyzer struct {
	src DashboardSource
}

func NewAnalyzer(src DashboardSource) *Analyzer {
	return &Analyzer{src: src}
}

// AnalyzeHabit returns the suggestions for a single habit's stats.
func AnalyzeHabit(stats models.HabitStats) []Suggestion {
	suggest := func(kind Kind, format string, args ...interface{}) Suggestion {
		return Suggestion{
			HabitID:   stats.HabitID,
			HabitName: stats.Name,
			Kind:      kind,
			Reason:    fmt.Sprintf(format, args...),
		}
	}

	if stats.TotalCompleted == 0 {
		return []Suggestion{suggest(KindNotStarted, "no completed days yet; start with a single check-in today")}
	}

	var out []Suggestion
	if stats.CurrentStreak >= notableStreak && stats.CurrentStreak == stats.LongestStreak {
		out = append(out, suggest(KindPersonalBest, "current %d-day streak is your best run", stats.CurrentStreak))
	}
	if stats.CurrentStreak == 0 && stats.LongestStreak >= notableStreak {
		out = append(out, suggest(KindStreakBroken, "best run was %d days; one completion restarts the streak", stats.LongestStreak))
	}
	if stats.WindowDays >= minWindowForRate {
		switch {
		case stats.CompletionRate < strugglingRate:
			out = append(out, suggest(KindStruggling, "completed %.0f%% of the last %d days; consider a smaller daily target", stats.CompletionRate, stats.WindowDays))
		case stats.CompletionRate >= consistentRate:
			out = append(out, suggest(KindConsistent, "completed %.0f%% of the last %d days", stats.CompletionRate, stats.WindowDays))
		}
	}
	return out
}

// AnalyzeOwner returns suggestions for every habit of ownerID, in dashboard order.
func (a *Analyzer) AnalyzeOwner(ctx context.Context, ownerID string, today utils.Day, windowDays int) ([]Suggestion, error) {
	dash, err := a.src.Dashboard(ctx, ownerID, today, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	var all []Suggestion
	for _, stats := range dash.Habits {
		all = append(all, AnalyzeHabit(stats)...)
	}
	return all, nil
}

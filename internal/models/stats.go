package models

// HabitStats summarises one habit as of a given day.
type HabitStats struct {
	HabitID        string    `json:"habitId"`
	Name           string    `json:"name"`
	Type           HabitType `json:"type"`
	Date           string    `json:"date"`
	CompletedToday bool      `json:"completedToday"`
	CurrentStreak  int       `json:"currentStreak"`
	LongestStreak  int       `json:"longestStreak"`
	WindowDays     int       `json:"windowDays"`
	CompletionRate float64   `json:"completionRate"`
	TotalCompleted int       `json:"totalCompleted"`
}

// DayProgress counts completed habits on a single day.
type DayProgress struct {
	Date      string  `json:"date"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

// TypeBreakdown aggregates completions per habit type over a window.
type TypeBreakdown struct {
	Type      HabitType `json:"type"`
	Habits    int       `json:"habits"`
	Completed int       `json:"completed"`
	Rate      float64   `json:"rate"`
}

// Dashboard is the combined view rendered by the analytics screen.
type Dashboard struct {
	Date       string          `json:"date"`
	WindowDays int             `json:"windowDays"`
	Today      DayProgress     `json:"today"`
	Habits     []HabitStats    `json:"habits"`
	ByType     []TypeBreakdown `json:"byType"`
	Trend      []DayProgress   `json:"trend"`
}

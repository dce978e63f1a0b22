package models

import (
	"strings"
	"time"

	apperr "github.com/julianstephens/habitlog/internal/errors"
)

type HabitType string

const (
	HabitTypeSpiritual  HabitType = "spiritual"
	HabitTypeEmotional  HabitType = "emotional"
	HabitTypeEconomical HabitType = "economical"
	HabitTypeMental     HabitType = "mental"
	HabitTypeGeneral    HabitType = "general"
	HabitTypePhysical   HabitType = "physical"
)

// HabitTypes lists every habit type in display order.
var HabitTypes = []HabitType{
	HabitTypeSpiritual,
	HabitTypeEmotional,
	HabitTypeEconomical,
	HabitTypeMental,
	HabitTypeGeneral,
	HabitTypePhysical,
}

// ParseHabitType accepts a habit type in any case.
func ParseHabitType(s string) (HabitType, error) {
	t := HabitType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return "", apperr.Required("type")
	}
	if !t.Valid() {
		return "", apperr.Invalid("type", "unknown habit type %q", s)
	}
	return t, nil
}

func (t HabitType) Valid() bool {
	for _, known := range HabitTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Habit represents a practice a user tracks day by day
type Habit struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"userId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        HabitType  `json:"type"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// HabitLog is the record of a single day for a habit. There is at most one
// log per (HabitID, Date).
type HabitLog struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId"`
	Date      string    `json:"date"` // YYYY-MM-DD format
	Completed bool      `json:"completed"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

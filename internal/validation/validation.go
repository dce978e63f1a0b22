// Package validation checks stored habits and logs for integrity problems
// that the storage layer cannot prevent on every backend.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

type IssueType string

const (
	IssueDuplicateHabitID IssueType = "duplicate_habit_id"
	IssueMissingOwner     IssueType = "missing_owner"
	IssueBlankName        IssueType = "blank_name"
	IssueInvalidType      IssueType = "invalid_type"
	IssueOrphanedLog      IssueType = "orphaned_log"
	IssueDuplicateSlot    IssueType = "duplicate_slot"
	IssueInvalidDate      IssueType = "invalid_date"
	IssueTimestampOrder   IssueType = "timestamp_order"
)

// Issue is one integrity problem.
type Issue struct {
	Type        IssueType
	Description string
	HabitID     string
	LogIDs      []string
}

type Result struct {
	Issues []Issue
}

func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// Count returns how many issues of type t were found.
func (r *Result) Count(t IssueType) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Type == t {
			n++
		}
	}
	return n
}

// FormatReport returns a human-readable report of all issues.
func (r *Result) FormatReport() string {
	if !r.HasIssues() {
		return "No integrity issues detected."
	}
	var b strings.Builder
	b.WriteString("Integrity issues detected:\n")
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "- %s\n", issue.Description)
	}
	return b.String()
}

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// CheckHabits validates habit records on their own.
func (v *Validator) CheckHabits(habits []models.Habit) Result {
	var result Result
	seen := make(map[string]bool, len(habits))

	for _, h := range habits {
		if seen[h.ID] {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueDuplicateHabitID,
				Description: fmt.Sprintf("habit id %s is used by more than one habit", h.ID),
				HabitID:     h.ID,
			})
			continue
		}
		seen[h.ID] = true

		if strings.TrimSpace(h.OwnerID) == "" {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueMissingOwner,
				Description: fmt.Sprintf("habit %q (%s) has no owner", h.Name, h.ID),
				HabitID:     h.ID,
			})
		}
		if strings.TrimSpace(h.Name) == "" {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueBlankName,
				Description: fmt.Sprintf("habit %s has a blank name", h.ID),
				HabitID:     h.ID,
			})
		}
		if !h.Type.Valid() {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueInvalidType,
				Description: fmt.Sprintf("habit %q (%s) has unknown type %q", h.Name, h.ID, h.Type),
				HabitID:     h.ID,
			})
		}
	}
	return result
}

// CheckLogs validates logs against the habits they belong to. Issues are
// reported in a stable order: habits first, then logs by habit and date.
func (v *Validator) CheckLogs(habits []models.Habit, logs []models.HabitLog) Result {
	result := v.CheckHabits(habits)

	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}

	sorted := make([]models.HabitLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].HabitID != sorted[j].HabitID {
			return sorted[i].HabitID < sorted[j].HabitID
		}
		return sorted[i].Date < sorted[j].Date
	})

	slots := make(map[string][]string)
	var slotOrder []string
	for _, log := range sorted {
		if !known[log.HabitID] {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueOrphanedLog,
				Description: fmt.Sprintf("log %s references missing habit %s", log.ID, log.HabitID),
				HabitID:     log.HabitID,
				LogIDs:      []string{log.ID},
			})
		}
		if _, err := utils.ParseDay(log.Date); err != nil {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueInvalidDate,
				Description: fmt.Sprintf("log %s has invalid date %q", log.ID, log.Date),
				HabitID:     log.HabitID,
				LogIDs:      []string{log.ID},
			})
		}
		if !log.UpdatedAt.IsZero() && log.UpdatedAt.Before(log.CreatedAt) {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueTimestampOrder,
				Description: fmt.Sprintf("log %s was updated before it was created", log.ID),
				HabitID:     log.HabitID,
				LogIDs:      []string{log.ID},
			})
		}

		key := log.HabitID + "|" + log.Date
		if _, ok := slots[key]; !ok {
			slotOrder = append(slotOrder, key)
		}
		slots[key] = append(slots[key], log.ID)
	}

	for _, key := range slotOrder {
		ids := slots[key]
		if len(ids) < 2 {
			continue
		}
		habitID, date, _ := strings.Cut(key, "|")
		result.Issues = append(result.Issues, Issue{
			Type:        IssueDuplicateSlot,
			Description: fmt.Sprintf("habit %s has %d logs for %s", habitID, len(ids), date),
			HabitID:     habitID,
			LogIDs:      ids,
		})
	}

	return result
}

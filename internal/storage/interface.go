package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/migration"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

// LogMutator receives the current log for a slot (nil when the slot is empty)
// and returns the log to persist.
type LogMutator func(existing *models.HabitLog) (models.HabitLog, error)

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	ListHabits(ctx context.Context, ownerID string) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) error
	// DeleteHabit removes the habit together with all of its logs.
	DeleteHabit(ctx context.Context, id string) error

	// Habit logs
	ListLogs(ctx context.Context, habitID string) ([]models.HabitLog, error)
	ListLogsInRange(ctx context.Context, habitID string, start, end utils.Day) ([]models.HabitLog, error)
	ListLogsForOwner(ctx context.Context, ownerID string) ([]models.HabitLog, error)
	GetLog(ctx context.Context, habitID string, day utils.Day) (models.HabitLog, error)
	// PutLog inserts the log or replaces the log occupying the same slot.
	PutLog(ctx context.Context, log models.HabitLog) error
	// MutateLog performs an atomic read-modify-write of one (habitID, day) slot.
	// A concurrent writer creating the same slot first surfaces as ErrConflictLost.
	MutateLog(ctx context.Context, habitID string, day utils.Day, fn LogMutator) (models.HabitLog, error)
	DeleteLogsForHabit(ctx context.Context, habitID string) error

	// Bulk Retrieval for Migration
	GetAllHabits(ctx context.Context) ([]models.Habit, error)
	GetAllLogs(ctx context.Context) ([]models.HabitLog, error)

	// Utils
	GetConfigPath() string
}

// SQLProvider is implemented by the database-backed providers. The JSON
// store has no schema and does not implement it.
type SQLProvider interface {
	Provider
	GetDB() *sql.DB
	MigrationRunner() (*migration.Runner, error)
}

// IsPostgresConnString reports whether config names a PostgreSQL database.
func IsPostgresConnString(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// IsJSONPath reports whether config names a JSON document store.
func IsJSONPath(config string) bool {
	return strings.HasSuffix(strings.ToLower(config), constants.JSONStoreSuffix)
}

// DefaultSettings returns the settings written by Init on a fresh store.
func DefaultSettings() models.Settings {
	return models.Settings{
		Timezone:          constants.DefaultTimezone,
		OwnerID:           constants.DefaultOwnerID,
		ReminderSpec:      constants.DefaultReminderSpec,
		DefaultWindowDays: constants.DefaultWindowDays,
	}
}

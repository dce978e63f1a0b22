package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperr "github.com/julianstephens/habitlog/internal/errors"

	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/storage/storagetest"
	"github.com/julianstephens/habitlog/internal/utils"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProvider(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		return setupTestStore(t)
	})
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected Load to fail before Init")
	}
}

func TestLoadAfterInit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	store := NewStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := NewStore(path)
	defer reopened.Close()
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := reopened.GetSettings(ctx); err != nil {
		t.Errorf("expected settings after reload: %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	settings := models.Settings{Timezone: "UTC", OwnerID: "alice", DefaultWindowDays: 7}
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	got, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got != settings {
		t.Errorf("second Init overwrote settings: %+v", got)
	}
}

func TestUniqueSlotConstraint(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	if err := store.AddHabit(ctx, models.Habit{ID: "h1", OwnerID: "alice", Name: "Read", Type: models.HabitTypeMental}); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	insert := `INSERT INTO habit_logs (id, habit_id, date, completed, notes, created_at, updated_at)
		VALUES (?, 'h1', '2024-06-15', 1, '', '2024-06-15T00:00:00Z', '2024-06-15T00:00:00Z')`
	if _, err := store.db.Exec(insert, "a"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := store.db.Exec(insert, "b")
	if !isUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}

	logs, err := store.ListLogs(ctx, "h1")
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("expected one log for the slot, got %d", len(logs))
	}
}

func TestInvalidHabitTypeRejected(t *testing.T) {
	store := setupTestStore(t)
	err := store.AddHabit(context.Background(), models.Habit{ID: "h1", OwnerID: "alice", Name: "Read", Type: "bogus"})
	if err == nil {
		t.Fatal("expected invalid habit type to be rejected by the schema")
	}
}

func TestMutateLogLockedByOtherProcess(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	store := NewStore(path)
	store.busyTimeout = 50 * time.Millisecond
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer store.Close()
	if err := store.AddHabit(ctx, models.Habit{ID: "h1", OwnerID: "alice", Name: "Read", Type: models.HabitTypeMental}); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	// A second handle stands in for another habitlog process holding the write lock
	other, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open second handle: %v", err)
	}
	defer other.Close()
	conn, err := other.Conn(ctx)
	if err != nil {
		t.Fatalf("failed to get connection: %v", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("failed to take write lock: %v", err)
	}

	day := utils.MustParseDay("2024-06-15")
	called := false
	mutate := func(existing *models.HabitLog) (models.HabitLog, error) {
		called = true
		now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
		return models.HabitLog{ID: "l1", HabitID: "h1", Date: day.String(), Completed: true, CreatedAt: now, UpdatedAt: now}, nil
	}

	_, err = store.MutateLog(ctx, "h1", day, mutate)
	if !errors.Is(err, apperr.ErrConflictLost) {
		t.Fatalf("expected ErrConflictLost while locked, got %v", err)
	}
	if called {
		t.Error("mutator ran without holding the write lock")
	}

	if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		t.Fatalf("failed to release write lock: %v", err)
	}

	log, err := store.MutateLog(ctx, "h1", day, mutate)
	if err != nil {
		t.Fatalf("MutateLog after unlock failed: %v", err)
	}
	if !log.Completed {
		t.Errorf("expected completed log, got %+v", log)
	}
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked message", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"unique violation", errors.New("UNIQUE constraint failed: habit_logs.habit_id, habit_logs.date"), false},
		{"no rows", sql.ErrNoRows, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBusy(tt.err); got != tt.want {
				t.Errorf("isBusy(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

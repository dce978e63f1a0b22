package habits

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitlog/internal/cli"
	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) *cli.Context {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	settings := storage.DefaultSettings()
	settings.Timezone = "UTC"
	if err := store.SaveSettings(context.Background(), settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return cli.NewContext(store, "alice", service.WithClock(func() time.Time { return now }))
}

func listHabits(t *testing.T, ctx *cli.Context) []models.Habit {
	t.Helper()
	habits, err := ctx.Service.ListHabits(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	return habits
}

func TestHabitAddCmd(t *testing.T) {
	ctx := setupTestDB(t)

	cmd := &HabitAddCmd{Name: "Meditate", Description: "10 minutes", Type: "Spiritual"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("habit add failed: %v", err)
	}

	habits := listHabits(t, ctx)
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(habits))
	}
	if habits[0].Type != models.HabitTypeSpiritual || habits[0].OwnerID != "alice" {
		t.Errorf("unexpected habit: %+v", habits[0])
	}
}

func TestHabitAddCmd_DefaultsToGeneral(t *testing.T) {
	ctx := setupTestDB(t)

	// kong fills in the default when --type is omitted
	cmd := &HabitAddCmd{Name: "Journal", Type: "general"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("habit add failed: %v", err)
	}
	if got := listHabits(t, ctx)[0].Type; got != models.HabitTypeGeneral {
		t.Errorf("type = %s, want general", got)
	}
}

func TestHabitAddCmd_InvalidType(t *testing.T) {
	ctx := setupTestDB(t)

	err := (&HabitAddCmd{Name: "Knit", Type: "hobby"}).Run(ctx)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHabitListCmd(t *testing.T) {
	ctx := setupTestDB(t)

	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Errorf("list on empty store failed: %v", err)
	}

	(&HabitAddCmd{Name: "Run", Type: "physical"}).Run(ctx)
	(&HabitAddCmd{Name: "Read", Type: "mental"}).Run(ctx)

	for _, cmd := range []*HabitListCmd{{}, {JSON: true}, {Type: "mental"}} {
		if err := cmd.Run(ctx); err != nil {
			t.Errorf("list %+v failed: %v", cmd, err)
		}
	}
	if err := (&HabitListCmd{Type: "hobby"}).Run(ctx); !apperr.IsValidation(err) {
		t.Errorf("unknown type filter should fail validation, got %v", err)
	}
}

func TestFilterByType(t *testing.T) {
	habits := []models.Habit{
		{Name: "Run", Type: models.HabitTypePhysical},
		{Name: "Read", Type: models.HabitTypeMental},
		{Name: "Lift", Type: models.HabitTypePhysical},
	}
	got := filterByType(habits, models.HabitTypePhysical)
	if len(got) != 2 || got[0].Name != "Run" || got[1].Name != "Lift" {
		t.Errorf("unexpected filter result: %+v", got)
	}
}

func TestRenderHabitTable(t *testing.T) {
	out := renderHabitTable([]models.Habit{{ID: "h1", Name: "Run", Type: models.HabitTypePhysical, CreatedAt: time.Now()}})
	for _, want := range []string{"NAME", "Run", "physical", "h1"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestHabitEditCmd(t *testing.T) {
	ctx := setupTestDB(t)
	(&HabitAddCmd{Name: "Run", Type: "physical"}).Run(ctx)

	name := "Run 5k"
	if err := (&HabitEditCmd{Habit: "run", Name: &name}).Run(ctx); err != nil {
		t.Fatalf("habit edit failed: %v", err)
	}
	if got := listHabits(t, ctx)[0].Name; got != name {
		t.Errorf("name = %q, want %q", got, name)
	}

	if err := (&HabitEditCmd{Habit: "Run 5k"}).Run(ctx); err == nil {
		t.Error("edit without changes should fail")
	}
}

func TestHabitDeleteCmd(t *testing.T) {
	ctx := setupTestDB(t)
	(&HabitAddCmd{Name: "Run", Type: "physical"}).Run(ctx)
	habit := listHabits(t, ctx)[0]

	if _, err := ctx.Service.ToggleCompletion(context.Background(), "alice", habit.ID, "2024-06-15", nil); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := (&HabitDeleteCmd{Habit: habit.ID, Yes: true}).Run(ctx); err != nil {
		t.Fatalf("habit delete failed: %v", err)
	}
	if len(listHabits(t, ctx)) != 0 {
		t.Error("habit should be gone")
	}
	logs, err := ctx.Store.ListLogs(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("expected logs to cascade, found %d", len(logs))
	}

	if err := (&HabitDeleteCmd{Habit: "Run", Yes: true}).Run(ctx); !apperr.IsNotFound(err) {
		t.Errorf("second delete should be not found, got %v", err)
	}
}

func TestHabitShowCmd(t *testing.T) {
	ctx := setupTestDB(t)
	(&HabitAddCmd{Name: "Run", Type: "physical"}).Run(ctx)

	if err := (&HabitShowCmd{Habit: "Run", Window: 7}).Run(ctx); err != nil {
		t.Errorf("habit show failed: %v", err)
	}
}

func TestDescribeHabit(t *testing.T) {
	out := describeHabit(
		models.Habit{ID: "h1", Name: "Run", Type: models.HabitTypePhysical, Description: "morning loop"},
		models.HabitStats{CompletedToday: true, CurrentStreak: 3, LongestStreak: 5, CompletionRate: 42.5, WindowDays: 30, TotalCompleted: 9},
	)
	for _, want := range []string{"morning loop", "Done today:      yes", "Current streak:  3", "42.5% over 30 days"} {
		if !strings.Contains(out, want) {
			t.Errorf("description missing %q:\n%s", want, out)
		}
	}
}

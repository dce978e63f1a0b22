package logs

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
	"github.com/julianstephens/habitlog/internal/utils"
)

func setupTestDB(t *testing.T) (*cli.Context, models.Habit) {
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
	ctx := cli.NewContext(store, "alice", service.WithClock(func() time.Time { return now }))

	habit, err := ctx.Service.CreateHabit(context.Background(), "alice", service.HabitInput{Name: "Meditate", Type: "spiritual"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	return ctx, habit
}

func getLog(t *testing.T, ctx *cli.Context, habitID, date string) models.HabitLog {
	t.Helper()
	log, err := ctx.Store.GetLog(context.Background(), habitID, utils.MustParseDay(date))
	if err != nil {
		t.Fatalf("GetLog(%s) failed: %v", date, err)
	}
	return log
}

func TestLogToggleCmd(t *testing.T) {
	ctx, habit := setupTestDB(t)

	cmd := &LogToggleCmd{Habit: "meditate", Date: "today"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !getLog(t, ctx, habit.ID, "2024-06-15").Completed {
		t.Error("first toggle should complete the day")
	}

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if getLog(t, ctx, habit.ID, "2024-06-15").Completed {
		t.Error("second toggle should clear the day")
	}
}

func TestLogToggleCmd_Yesterday(t *testing.T) {
	ctx, habit := setupTestDB(t)

	if err := (&LogToggleCmd{Habit: habit.ID, Date: "yesterday"}).Run(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !getLog(t, ctx, habit.ID, "2024-06-14").Completed {
		t.Error("yesterday should be completed")
	}
}

func TestLogRecordCmd(t *testing.T) {
	ctx, habit := setupTestDB(t)
	notes := "felt calm"

	if err := (&LogRecordCmd{Habit: "Meditate", Date: "2024-06-10", Completed: true, Notes: &notes}).Run(ctx); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := (&LogRecordCmd{Habit: "Meditate", Date: "2024-06-10", Completed: false}).Run(ctx); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	log := getLog(t, ctx, habit.ID, "2024-06-10")
	if log.Completed {
		t.Error("log should be cleared")
	}
	if log.Notes != notes {
		t.Errorf("notes = %q, want %q kept", log.Notes, notes)
	}
}

func TestLogRecordCmd_BadInput(t *testing.T) {
	ctx, _ := setupTestDB(t)

	if err := (&LogRecordCmd{Habit: "Meditate", Date: "June 10", Completed: true}).Run(ctx); !apperr.IsValidation(err) {
		t.Errorf("bad date should be a validation error, got %v", err)
	}
	if err := (&LogRecordCmd{Habit: "Swim", Date: "today", Completed: true}).Run(ctx); !apperr.IsNotFound(err) {
		t.Errorf("unknown habit should be not found, got %v", err)
	}
}

func TestLogListCmd(t *testing.T) {
	ctx, _ := setupTestDB(t)
	(&LogToggleCmd{Habit: "Meditate", Date: "2024-06-14"}).Run(ctx)
	(&LogToggleCmd{Habit: "Meditate", Date: "2024-06-15"}).Run(ctx)

	for _, cmd := range []*LogListCmd{{}, {Habit: "Meditate"}, {Date: "2024-06-14"}, {JSON: true}} {
		if err := cmd.Run(ctx); err != nil {
			t.Errorf("list %+v failed: %v", cmd, err)
		}
	}
}

func TestLogHistoryCmd(t *testing.T) {
	ctx, _ := setupTestDB(t)
	(&LogToggleCmd{Habit: "Meditate", Date: "2024-06-15"}).Run(ctx)

	if err := (&LogHistoryCmd{Days: 7}).Run(ctx); err != nil {
		t.Errorf("history failed: %v", err)
	}
	if err := (&LogHistoryCmd{Habit: "Meditate", Days: 3}).Run(ctx); err != nil {
		t.Errorf("history for one habit failed: %v", err)
	}
	if err := (&LogHistoryCmd{Days: 0}).Run(ctx); err == nil {
		t.Error("zero days should be rejected")
	}
}

func TestRenderHistory(t *testing.T) {
	days := utils.DayRange(utils.MustParseDay("2024-03-03"), utils.MustParseDay("2024-03-05"))
	rows := []historyRow{
		{name: "Meditate", done: map[string]bool{"2024-03-04": true}},
		{name: "A very long habit name indeed", done: map[string]bool{}},
	}

	out := renderHistory(rows, days)
	lines := strings.Split(out, "\n")

	if !strings.Contains(lines[0], "03/03") || !strings.Contains(lines[0], "03/05") {
		t.Errorf("header missing dates: %q", lines[0])
	}
	if strings.Count(lines[2], "✓") != 1 || strings.Count(lines[2], "·") != 2 {
		t.Errorf("unexpected row: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "A very long habit...") {
		t.Errorf("long name should be truncated: %q", lines[3])
	}
	if !strings.Contains(out, "Mar 3 to Mar 5") {
		t.Errorf("missing range footer:\n%s", out)
	}
}

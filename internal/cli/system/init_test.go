package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/storage/sqlite"
)

func newUninitializedContext(t *testing.T, name string) (*cli.Context, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), name)
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() { store.Close() })
	return cli.NewContext(store, ""), dbPath
}

func TestInitCmd_CreatesDatabase(t *testing.T) {
	ctx, dbPath := newUninitializedContext(t, "habitlog.db")

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}

	settings, err := ctx.Store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if settings.OwnerID != constants.DefaultOwnerID {
		t.Errorf("expected default owner %q, got %q", constants.DefaultOwnerID, settings.OwnerID)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _ := newUninitializedContext(t, "habitlog.db")

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ForceResetsData(t *testing.T) {
	ctx, dbPath := setupTestDB(t)
	bg := context.Background()
	addHabit(t, ctx, "Read")

	settings, err := ctx.Store.GetSettings(bg)
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	settings.Timezone = "Europe/Paris"
	if err := ctx.Store.SaveSettings(bg, settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init with force failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("database file was not recreated after force")
	}

	settings, err = ctx.Store.GetSettings(bg)
	if err != nil {
		t.Fatalf("failed to get settings after force: %v", err)
	}
	if settings.Timezone != constants.DefaultTimezone {
		t.Errorf("expected default timezone %q, got %q", constants.DefaultTimezone, settings.Timezone)
	}
	habits, err := ctx.Store.GetAllHabits(bg)
	if err != nil {
		t.Fatalf("failed to list habits: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("expected no habits after force, got %d", len(habits))
	}
}

func TestInitCmd_ForceWithNonExistentDatabase(t *testing.T) {
	ctx, dbPath := newUninitializedContext(t, "habitlog.db")

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init with force on non-existent database failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created")
	}
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	ctx, dbPath := setupTestDB(t)

	err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx)
	if err == nil {
		t.Fatal("expected error when source and destination are the same")
	}
}

func TestInitCmd_CopiesFromSource(t *testing.T) {
	source, sourcePath := setupTestDB(t)
	habit := addHabit(t, source, "Meditate")
	recordDone(t, source, habit.ID, "2024-06-14")
	recordDone(t, source, habit.ID, "2024-06-15")

	dest := cli.NewContext(storage.NewJSONStore(filepath.Join(t.TempDir(), "copy.json")), "")

	if err := (&InitCmd{Source: sourcePath}).Run(dest); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}

	bg := context.Background()
	got, err := dest.Store.GetHabit(bg, habit.ID)
	if err != nil {
		t.Fatalf("habit was not copied: %v", err)
	}
	if got.Name != "Meditate" {
		t.Errorf("expected habit name Meditate, got %q", got.Name)
	}
	logs, err := dest.Store.ListLogs(bg, habit.ID)
	if err != nil {
		t.Fatalf("failed to list copied logs: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("expected 2 copied logs, got %d", len(logs))
	}
}

package backups

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habitlog/internal/backup"
	"github.com/julianstephens/habitlog/internal/cli"
	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/storage/postgres"
	"github.com/julianstephens/habitlog/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "habitlog.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return cli.NewContext(store, "alice"), dbPath
}

func addHabit(t *testing.T, ctx *cli.Context, name string) {
	t.Helper()
	if _, err := ctx.Service.CreateHabit(context.Background(), "alice", service.HabitInput{Name: name, Type: "mental"}); err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	runErr := fn()
	w.Close()
	os.Stdout = orig
	return string(<-done), runErr
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, dbPath := setupTestDB(t)
	addHabit(t, ctx, "Read")

	out, err := captureStdout(t, func() error { return (&BackupCreateCmd{}).Run(ctx) })
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out, "✓ Backup created: habitlog-") {
		t.Errorf("unexpected create output: %q", out)
	}

	backups, err := backup.NewManager(dbPath).List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups))
	}

	out, err = captureStdout(t, func() error { return (&BackupListCmd{}).Run(ctx) })
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Available backups (1 total") || !strings.Contains(out, filepath.Base(backups[0].Path)) {
		t.Errorf("unexpected list output: %q", out)
	}
}

func TestBackupListEmpty(t *testing.T) {
	ctx, dbPath := setupTestDB(t)

	out, err := captureStdout(t, func() error { return (&BackupListCmd{}).Run(ctx) })
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No backups found.") || !strings.Contains(out, filepath.Join(filepath.Dir(dbPath), backup.DirName)) {
		t.Errorf("unexpected list output: %q", out)
	}
}

func TestBackupRestore(t *testing.T) {
	ctx, dbPath := setupTestDB(t)
	addHabit(t, ctx, "Read")

	backupPath, err := backup.NewManager(dbPath).Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	addHabit(t, ctx, "Walk")

	cmd := &BackupRestoreCmd{BackupFile: filepath.Base(backupPath), Yes: true}
	out, err := captureStdout(t, func() error { return cmd.Run(ctx) })
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out, "✓ Restored successfully.") {
		t.Errorf("unexpected restore output: %q", out)
	}

	store := sqlite.NewStore(dbPath)
	defer store.Close()
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	habits, err := store.ListHabits(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 1 || habits[0].Name != "Read" {
		t.Errorf("restored habits = %+v, want only Read", habits)
	}
}

func TestBackupRestoreCancelled(t *testing.T) {
	ctx, dbPath := setupTestDB(t)
	addHabit(t, ctx, "Read")
	backupPath, err := backup.NewManager(dbPath).Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	addHabit(t, ctx, "Walk")

	cmd := &BackupRestoreCmd{BackupFile: backupPath, in: strings.NewReader("n\n")}
	out, err := captureStdout(t, func() error { return cmd.Run(ctx) })
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out, "Restore cancelled.") {
		t.Errorf("unexpected output: %q", out)
	}

	habits, err := ctx.Store.ListHabits(context.Background(), "alice")
	if err != nil {
		t.Fatalf("store unusable after cancelled restore: %v", err)
	}
	if len(habits) != 2 {
		t.Errorf("expected 2 habits after cancelled restore, got %d", len(habits))
	}
}

func TestBackupRestoreUnknownFile(t *testing.T) {
	ctx, _ := setupTestDB(t)
	cmd := &BackupRestoreCmd{BackupFile: "habitlog-19990101-000000.db", Yes: true}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected error for a missing backup")
	}
}

func TestBackupJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitlog.json")
	store := storage.NewJSONStore(path)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	ctx := cli.NewContext(store, "alice")

	out, err := captureStdout(t, func() error { return (&BackupCreateCmd{}).Run(ctx) })
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out, ".json") {
		t.Errorf("expected a .json backup, got %q", out)
	}
}

func TestBackupRefusesPostgres(t *testing.T) {
	ctx := cli.NewContext(postgres.New("postgresql://habitlog@localhost:5432/habitlog"), "alice")
	err := (&BackupCreateCmd{}).Run(ctx)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for a PostgreSQL store, got %v", err)
	}
}

package system

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return cli.NewContext(store, "alice"), dbPath
}

func addHabit(t *testing.T, ctx *cli.Context, name string) models.Habit {
	t.Helper()
	habit, err := ctx.Service.CreateHabit(context.Background(), "alice", service.HabitInput{Name: name, Type: "physical"})
	if err != nil {
		t.Fatalf("failed to create habit: %v", err)
	}
	return habit
}

func recordDone(t *testing.T, ctx *cli.Context, habitID, date string) {
	t.Helper()
	if _, err := ctx.Service.RecordCompletion(context.Background(), "alice", habitID, date, true, nil); err != nil {
		t.Fatalf("failed to record completion: %v", err)
	}
}

// captureStdout returns what fn printed to stdout.
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

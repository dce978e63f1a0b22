package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/storage/storagetest"
)

// TestStore_Integration tests PostgreSQL store with a real database
// Set POSTGRES_TEST_URL environment variable to run this test
// Example: POSTGRES_TEST_URL="postgres://habitlog_user@localhost:5432/habitlog_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	storagetest.Run(t, func(t *testing.T) storage.Provider {
		ctx := context.Background()
		store := New(connStr)
		if err := store.Init(ctx); err != nil {
			t.Fatalf("Failed to initialize store: %v", err)
		}
		t.Cleanup(func() { store.Close() })

		// Each subtest starts from empty tables and default settings
		if _, err := store.db.ExecContext(ctx, "TRUNCATE habit_logs, habits, settings"); err != nil {
			t.Fatalf("Failed to truncate tables: %v", err)
		}
		if err := store.SaveSettings(ctx, storage.DefaultSettings()); err != nil {
			t.Fatalf("Failed to reset settings: %v", err)
		}
		return store
	})
}

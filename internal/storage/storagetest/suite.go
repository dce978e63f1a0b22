// Package storagetest holds behaviour tests shared by every storage.Provider backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/utils"
)

// Factory returns a fresh, initialized provider. Cleanup is registered on t.
type Factory func(t *testing.T) storage.Provider

var created = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func habit(id, owner string) models.Habit {
	return models.Habit{
		ID:        id,
		OwnerID:   owner,
		Name:      "Habit " + id,
		Type:      models.HabitTypeMental,
		CreatedAt: created,
	}
}

func logFor(habitID, date string, completed bool) models.HabitLog {
	return models.HabitLog{
		ID:        habitID + "-" + date,
		HabitID:   habitID,
		Date:      date,
		Completed: completed,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// Run exercises the Provider contract against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("settings round trip", func(t *testing.T) {
		s := newStore(t)
		got, err := s.GetSettings(ctx)
		if err != nil {
			t.Fatalf("GetSettings failed: %v", err)
		}
		if got != storage.DefaultSettings() {
			t.Errorf("expected default settings, got %+v", got)
		}

		want := models.Settings{Timezone: "Europe/Berlin", OwnerID: "alice", ReminderSpec: "", DefaultWindowDays: 7}
		if err := s.SaveSettings(ctx, want); err != nil {
			t.Fatalf("SaveSettings failed: %v", err)
		}
		got, err = s.GetSettings(ctx)
		if err != nil {
			t.Fatalf("GetSettings failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("habit crud", func(t *testing.T) {
		s := newStore(t)
		h := habit("h1", "alice")
		if err := s.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		if err := s.AddHabit(ctx, habit("h2", "bob")); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}

		got, err := s.GetHabit(ctx, "h1")
		if err != nil {
			t.Fatalf("GetHabit failed: %v", err)
		}
		if got.Name != h.Name || got.OwnerID != "alice" || got.Type != models.HabitTypeMental {
			t.Errorf("unexpected habit: %+v", got)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("expected created_at %v, got %v", created, got.CreatedAt)
		}

		owned, err := s.ListHabits(ctx, "alice")
		if err != nil {
			t.Fatalf("ListHabits failed: %v", err)
		}
		if len(owned) != 1 || owned[0].ID != "h1" {
			t.Errorf("expected only h1 for alice, got %+v", owned)
		}

		updated := got
		updated.Name = "Renamed"
		updated.Type = models.HabitTypePhysical
		now := created.Add(time.Hour)
		updated.UpdatedAt = &now
		if err := s.UpdateHabit(ctx, updated); err != nil {
			t.Fatalf("UpdateHabit failed: %v", err)
		}
		got, err = s.GetHabit(ctx, "h1")
		if err != nil {
			t.Fatalf("GetHabit failed: %v", err)
		}
		if got.Name != "Renamed" || got.Type != models.HabitTypePhysical {
			t.Errorf("update not persisted: %+v", got)
		}
		if got.UpdatedAt == nil || !got.UpdatedAt.Equal(now) {
			t.Errorf("expected updated_at %v, got %v", now, got.UpdatedAt)
		}

		all, err := s.GetAllHabits(ctx)
		if err != nil {
			t.Fatalf("GetAllHabits failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 habits, got %d", len(all))
		}
	})

	t.Run("missing records are not found", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetHabit(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("GetHabit: expected ErrNotFound, got %v", err)
		}
		if err := s.UpdateHabit(ctx, habit("nope", "alice")); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("UpdateHabit: expected ErrNotFound, got %v", err)
		}
		if err := s.DeleteHabit(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("DeleteHabit: expected ErrNotFound, got %v", err)
		}
		if _, err := s.GetLog(ctx, "nope", utils.MustParseDay("2024-06-15")); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("GetLog: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("logs queries", func(t *testing.T) {
		s := newStore(t)
		for _, h := range []models.Habit{habit("h1", "alice"), habit("h2", "alice"), habit("h3", "bob")} {
			if err := s.AddHabit(ctx, h); err != nil {
				t.Fatalf("AddHabit failed: %v", err)
			}
		}
		for _, l := range []models.HabitLog{
			logFor("h1", "2024-06-13", true),
			logFor("h1", "2024-06-15", true),
			logFor("h1", "2024-06-14", false),
			logFor("h2", "2024-06-15", true),
			logFor("h3", "2024-06-15", true),
		} {
			if err := s.PutLog(ctx, l); err != nil {
				t.Fatalf("PutLog failed: %v", err)
			}
		}

		logs, err := s.ListLogs(ctx, "h1")
		if err != nil {
			t.Fatalf("ListLogs failed: %v", err)
		}
		if len(logs) != 3 || logs[0].Date != "2024-06-15" || logs[2].Date != "2024-06-13" {
			t.Errorf("expected h1 logs newest first, got %+v", logs)
		}

		ranged, err := s.ListLogsInRange(ctx, "h1", utils.MustParseDay("2024-06-14"), utils.MustParseDay("2024-06-15"))
		if err != nil {
			t.Fatalf("ListLogsInRange failed: %v", err)
		}
		if len(ranged) != 2 {
			t.Errorf("expected 2 logs in range, got %d", len(ranged))
		}

		owned, err := s.ListLogsForOwner(ctx, "alice")
		if err != nil {
			t.Fatalf("ListLogsForOwner failed: %v", err)
		}
		if len(owned) != 4 {
			t.Errorf("expected 4 logs for alice, got %d", len(owned))
		}

		got, err := s.GetLog(ctx, "h1", utils.MustParseDay("2024-06-14"))
		if err != nil {
			t.Fatalf("GetLog failed: %v", err)
		}
		if got.Completed {
			t.Error("expected 2024-06-14 to be incomplete")
		}

		all, err := s.GetAllLogs(ctx)
		if err != nil {
			t.Fatalf("GetAllLogs failed: %v", err)
		}
		if len(all) != 5 {
			t.Errorf("expected 5 logs, got %d", len(all))
		}
	})

	t.Run("put log replaces slot", func(t *testing.T) {
		s := newStore(t)
		if err := s.AddHabit(ctx, habit("h1", "alice")); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		if err := s.PutLog(ctx, logFor("h1", "2024-06-15", false)); err != nil {
			t.Fatalf("PutLog failed: %v", err)
		}
		replacement := logFor("h1", "2024-06-15", true)
		replacement.ID = "other-id"
		replacement.Notes = "done"
		if err := s.PutLog(ctx, replacement); err != nil {
			t.Fatalf("PutLog failed: %v", err)
		}
		logs, err := s.ListLogs(ctx, "h1")
		if err != nil {
			t.Fatalf("ListLogs failed: %v", err)
		}
		if len(logs) != 1 {
			t.Fatalf("expected exactly one log for the slot, got %d", len(logs))
		}
		if !logs[0].Completed || logs[0].Notes != "done" {
			t.Errorf("expected replaced log, got %+v", logs[0])
		}
	})

	t.Run("mutate log creates then updates", func(t *testing.T) {
		s := newStore(t)
		if err := s.AddHabit(ctx, habit("h1", "alice")); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		day := utils.MustParseDay("2024-06-15")

		var sawExisting bool
		_, err := s.MutateLog(ctx, "h1", day, func(existing *models.HabitLog) (models.HabitLog, error) {
			sawExisting = existing != nil
			return logFor("h1", day.String(), true), nil
		})
		if err != nil {
			t.Fatalf("MutateLog failed: %v", err)
		}
		if sawExisting {
			t.Error("expected empty slot on first mutation")
		}

		out, err := s.MutateLog(ctx, "h1", day, func(existing *models.HabitLog) (models.HabitLog, error) {
			if existing == nil {
				t.Fatal("expected existing log on second mutation")
			}
			next := *existing
			next.Completed = !existing.Completed
			next.Notes = "flipped"
			return next, nil
		})
		if err != nil {
			t.Fatalf("MutateLog failed: %v", err)
		}
		if out.Completed {
			t.Error("expected mutation to flip completion")
		}

		got, err := s.GetLog(ctx, "h1", day)
		if err != nil {
			t.Fatalf("GetLog failed: %v", err)
		}
		if got.Completed || got.Notes != "flipped" {
			t.Errorf("mutation not persisted: %+v", got)
		}
	})

	t.Run("mutate log propagates mutator error", func(t *testing.T) {
		s := newStore(t)
		if err := s.AddHabit(ctx, habit("h1", "alice")); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		boom := errors.New("boom")
		day := utils.MustParseDay("2024-06-15")
		_, err := s.MutateLog(ctx, "h1", day, func(*models.HabitLog) (models.HabitLog, error) {
			return models.HabitLog{}, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected mutator error, got %v", err)
		}
		if _, err := s.GetLog(ctx, "h1", day); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("expected no log written, got %v", err)
		}
	})

	t.Run("delete habit cascades logs", func(t *testing.T) {
		s := newStore(t)
		for _, h := range []models.Habit{habit("h1", "alice"), habit("h2", "alice")} {
			if err := s.AddHabit(ctx, h); err != nil {
				t.Fatalf("AddHabit failed: %v", err)
			}
		}
		for _, l := range []models.HabitLog{
			logFor("h1", "2024-06-14", true),
			logFor("h1", "2024-06-15", true),
			logFor("h2", "2024-06-15", true),
		} {
			if err := s.PutLog(ctx, l); err != nil {
				t.Fatalf("PutLog failed: %v", err)
			}
		}

		if err := s.DeleteHabit(ctx, "h1"); err != nil {
			t.Fatalf("DeleteHabit failed: %v", err)
		}
		logs, err := s.ListLogs(ctx, "h1")
		if err != nil {
			t.Fatalf("ListLogs failed: %v", err)
		}
		if len(logs) != 0 {
			t.Errorf("expected logs of deleted habit to be gone, got %d", len(logs))
		}
		logs, err = s.ListLogs(ctx, "h2")
		if err != nil {
			t.Fatalf("ListLogs failed: %v", err)
		}
		if len(logs) != 1 {
			t.Errorf("expected other habit's logs to survive, got %d", len(logs))
		}
	})

	t.Run("delete logs for habit", func(t *testing.T) {
		s := newStore(t)
		if err := s.AddHabit(ctx, habit("h1", "alice")); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		if err := s.PutLog(ctx, logFor("h1", "2024-06-15", true)); err != nil {
			t.Fatalf("PutLog failed: %v", err)
		}
		if err := s.DeleteLogsForHabit(ctx, "h1"); err != nil {
			t.Fatalf("DeleteLogsForHabit failed: %v", err)
		}
		logs, err := s.ListLogs(ctx, "h1")
		if err != nil {
			t.Fatalf("ListLogs failed: %v", err)
		}
		if len(logs) != 0 {
			t.Errorf("expected no logs, got %d", len(logs))
		}
		if _, err := s.GetHabit(ctx, "h1"); err != nil {
			t.Errorf("habit should survive log deletion: %v", err)
		}
	})
}

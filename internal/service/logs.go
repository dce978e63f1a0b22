package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/utils"
)

// LogFilter narrows ListLogs. Empty fields match everything.
type LogFilter struct {
	HabitID string
	Date    string
}

// WriteResult is the log left in a slot after a write, and whether the write created it.
type WriteResult struct {
	Log     models.HabitLog
	Created bool
}

func parseLogDate(date string) (utils.Day, error) {
	if strings.TrimSpace(date) == "" {
		return utils.Day{}, apperr.Required("date")
	}
	day, err := utils.ParseDay(date)
	if err != nil {
		return utils.Day{}, apperr.Invalid("date", "expected YYYY-MM-DD, got %q", date)
	}
	return day, nil
}

func suppliedNotes(notes *string) (string, bool) {
	if notes == nil || *notes == "" {
		return "", false
	}
	return *notes, true
}

// RecordCompletion sets the completion state of a habit on a day, creating the
// log when the slot is empty. Notes replace existing notes only when non-empty.
func (s *HabitService) RecordCompletion(ctx context.Context, ownerID, habitID, date string, completed bool, notes *string) (WriteResult, error) {
	day, err := parseLogDate(date)
	if err != nil {
		return WriteResult{}, err
	}
	if _, err := s.owned(ctx, ownerID, habitID); err != nil {
		return WriteResult{}, err
	}

	return s.writeSlot(ctx, habitID, day, func(existing *models.HabitLog) (models.HabitLog, error) {
		now := s.now().UTC()
		text, ok := suppliedNotes(notes)
		if existing == nil {
			return models.HabitLog{
				ID:        uuid.New().String(),
				HabitID:   habitID,
				Date:      day.String(),
				Completed: completed,
				Notes:     text,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		next := *existing
		next.Completed = completed
		if ok {
			next.Notes = text
		}
		next.UpdatedAt = now
		return next, nil
	})
}

// ToggleCompletion flips the completion state of a habit on a day. An empty
// slot becomes a completed log.
func (s *HabitService) ToggleCompletion(ctx context.Context, ownerID, habitID, date string, notes *string) (WriteResult, error) {
	day, err := parseLogDate(date)
	if err != nil {
		return WriteResult{}, err
	}
	if _, err := s.owned(ctx, ownerID, habitID); err != nil {
		return WriteResult{}, err
	}

	return s.writeSlot(ctx, habitID, day, func(existing *models.HabitLog) (models.HabitLog, error) {
		now := s.now().UTC()
		text, ok := suppliedNotes(notes)
		if existing == nil {
			return models.HabitLog{
				ID:        uuid.New().String(),
				HabitID:   habitID,
				Date:      day.String(),
				Completed: true,
				Notes:     text,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		next := *existing
		next.Completed = !existing.Completed
		if ok {
			next.Notes = text
		}
		next.UpdatedAt = now
		return next, nil
	})
}

// writeSlot serialises writers of one (habit, day) slot in this process and
// retries once when another process claimed the slot first.
func (s *HabitService) writeSlot(ctx context.Context, habitID string, day utils.Day, fn storage.LogMutator) (WriteResult, error) {
	unlock := s.slots.Lock(habitID + "|" + day.String())
	defer unlock()

	var created bool
	mutate := func(existing *models.HabitLog) (models.HabitLog, error) {
		created = existing == nil
		return fn(existing)
	}

	log, err := s.store.MutateLog(ctx, habitID, day, mutate)
	if apperr.IsConflict(err) {
		logger.Debug("habit log slot taken concurrently, retrying", "habit", habitID, "date", day.String())
		log, err = s.store.MutateLog(ctx, habitID, day, mutate)
		if apperr.IsConflict(err) {
			return WriteResult{}, apperr.Transient(err)
		}
	}
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Log: log, Created: created}, nil
}

// ListLogs returns the owner's logs, optionally narrowed to one habit and/or one day.
func (s *HabitService) ListLogs(ctx context.Context, ownerID string, filter LogFilter) ([]models.HabitLog, error) {
	var (
		logs []models.HabitLog
		err  error
	)
	if filter.HabitID != "" {
		if _, err := s.owned(ctx, ownerID, filter.HabitID); err != nil {
			return nil, err
		}
		logs, err = s.store.ListLogs(ctx, filter.HabitID)
	} else {
		logs, err = s.store.ListLogsForOwner(ctx, ownerID)
	}
	if err != nil {
		return nil, err
	}

	if filter.Date == "" {
		return logs, nil
	}
	day, err := parseLogDate(filter.Date)
	if err != nil {
		return nil, err
	}
	narrowed := []models.HabitLog{}
	for _, l := range logs {
		if d, err := utils.ParseDay(l.Date); err == nil && d.Equal(day) {
			narrowed = append(narrowed, l)
		}
	}
	return narrowed, nil
}

// History returns the habit's logs between start and end inclusive, newest first.
func (s *HabitService) History(ctx context.Context, ownerID, habitID string, start, end utils.Day) ([]models.HabitLog, error) {
	if _, err := s.owned(ctx, ownerID, habitID); err != nil {
		return nil, err
	}
	return s.store.ListLogsInRange(ctx, habitID, start, end)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/utils"
)

const logColumns = "id, habit_id, date, completed, notes, created_at, updated_at"

func scanLog(row scanner) (models.HabitLog, error) {
	var l models.HabitLog
	var createdAt, updatedAt string
	var completed int

	if err := row.Scan(&l.ID, &l.HabitID, &l.Date, &completed, &l.Notes, &createdAt, &updatedAt); err != nil {
		return models.HabitLog{}, err
	}
	l.Completed = completed != 0

	var err error
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to parse created_at for log %s: %w", l.ID, err)
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to parse updated_at for log %s: %w", l.ID, err)
	}
	return l, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) queryLogs(ctx context.Context, query string, args ...interface{}) ([]models.HabitLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.HabitLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) ListLogs(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "SELECT "+logColumns+" FROM habit_logs WHERE habit_id = ? ORDER BY date DESC", habitID)
}

func (s *Store) ListLogsInRange(ctx context.Context, habitID string, start, end utils.Day) ([]models.HabitLog, error) {
	// Dates are stored zero-padded so text comparison matches calendar order
	return s.queryLogs(ctx, `
		SELECT `+logColumns+` FROM habit_logs
		WHERE habit_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC`,
		habitID, start.String(), end.String())
}

func (s *Store) ListLogsForOwner(ctx context.Context, ownerID string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, `
		SELECT l.id, l.habit_id, l.date, l.completed, l.notes, l.created_at, l.updated_at
		FROM habit_logs l JOIN habits h ON h.id = l.habit_id
		WHERE h.owner_id = ?
		ORDER BY l.habit_id, l.date DESC`, ownerID)
}

func (s *Store) GetAllLogs(ctx context.Context) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "SELECT "+logColumns+" FROM habit_logs ORDER BY habit_id, date DESC")
}

func (s *Store) GetLog(ctx context.Context, habitID string, day utils.Day) (models.HabitLog, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+logColumns+" FROM habit_logs WHERE habit_id = ? AND date = ?", habitID, day.String())
	l, err := scanLog(row)
	if err != nil {
		return models.HabitLog{}, notFoundOr(err, "habit log", habitID+"@"+day.String())
	}
	return l, nil
}

func (s *Store) PutLog(ctx context.Context, log models.HabitLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_logs (`+logColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, date) DO UPDATE SET
			completed = excluded.completed,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		log.ID, log.HabitID, log.Date, boolInt(log.Completed), log.Notes,
		formatTime(log.CreatedAt), formatTime(log.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to put log for habit %s on %s: %w", log.HabitID, log.Date, err)
	}
	return nil
}

func (s *Store) MutateLog(ctx context.Context, habitID string, day utils.Day, fn storage.LogMutator) (models.HabitLog, error) {
	conflict := func(err error) error {
		if isBusy(err) || isUniqueViolation(err) {
			return fmt.Errorf("habit %s on %s: %w", habitID, day, apperr.ErrConflictLost)
		}
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return models.HabitLog{}, err
	}
	defer conn.Close()

	// IMMEDIATE takes the write lock before the read, so two processes cannot both
	// read an empty slot and race to insert it.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return models.HabitLog{}, conflict(err)
	}
	done := false
	defer func() {
		if !done {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var existing *models.HabitLog
	row := conn.QueryRowContext(ctx, "SELECT "+logColumns+" FROM habit_logs WHERE habit_id = ? AND date = ?", habitID, day.String())
	current, err := scanLog(row)
	switch {
	case err == nil:
		existing = &current
	case err != sql.ErrNoRows:
		return models.HabitLog{}, err
	}

	next, err := fn(existing)
	if err != nil {
		return models.HabitLog{}, err
	}

	if existing == nil {
		_, err = conn.ExecContext(ctx, `
			INSERT INTO habit_logs (`+logColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			next.ID, next.HabitID, next.Date, boolInt(next.Completed), next.Notes,
			formatTime(next.CreatedAt), formatTime(next.UpdatedAt))
	} else {
		_, err = conn.ExecContext(ctx, `
			UPDATE habit_logs SET completed = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			boolInt(next.Completed), next.Notes, formatTime(next.UpdatedAt), existing.ID)
	}
	if err != nil {
		if err := conflict(err); apperr.IsConflict(err) {
			return models.HabitLog{}, err
		}
		return models.HabitLog{}, fmt.Errorf("failed to write log for habit %s on %s: %w", habitID, day, err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return models.HabitLog{}, conflict(err)
	}
	done = true
	return next, nil
}

func (s *Store) DeleteLogsForHabit(ctx context.Context, habitID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM habit_logs WHERE habit_id = ?", habitID); err != nil {
		return fmt.Errorf("failed to delete logs for habit %s: %w", habitID, err)
	}
	return nil
}

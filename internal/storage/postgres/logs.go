package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitlog/internal/constants"
	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/utils"
)

const logColumns = "id, habit_id, date, completed, notes, created_at, updated_at"

func scanLog(row scanner) (models.HabitLog, error) {
	var l models.HabitLog
	var date time.Time

	if err := row.Scan(&l.ID, &l.HabitID, &date, &l.Completed, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return models.HabitLog{}, err
	}
	l.Date = date.Format(constants.DateFormat)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
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
	return s.queryLogs(ctx, "SELECT "+logColumns+" FROM habit_logs WHERE habit_id = $1 ORDER BY date DESC", habitID)
}

func (s *Store) ListLogsInRange(ctx context.Context, habitID string, start, end utils.Day) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, `
		SELECT `+logColumns+` FROM habit_logs
		WHERE habit_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC`,
		habitID, start.String(), end.String())
}

func (s *Store) ListLogsForOwner(ctx context.Context, ownerID string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, `
		SELECT l.id, l.habit_id, l.date, l.completed, l.notes, l.created_at, l.updated_at
		FROM habit_logs l JOIN habits h ON h.id = l.habit_id
		WHERE h.owner_id = $1
		ORDER BY l.habit_id, l.date DESC`, ownerID)
}

func (s *Store) GetAllLogs(ctx context.Context) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "SELECT "+logColumns+" FROM habit_logs ORDER BY habit_id, date DESC")
}

func (s *Store) GetLog(ctx context.Context, habitID string, day utils.Day) (models.HabitLog, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+logColumns+" FROM habit_logs WHERE habit_id = $1 AND date = $2", habitID, day.String())
	l, err := scanLog(row)
	if err != nil {
		return models.HabitLog{}, notFoundOr(err, "habit log", habitID+"@"+day.String())
	}
	return l, nil
}

func (s *Store) PutLog(ctx context.Context, log models.HabitLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_logs (`+logColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT habit_logs_slot_key DO UPDATE SET
			completed = EXCLUDED.completed,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		log.ID, log.HabitID, log.Date, log.Completed, log.Notes, log.CreatedAt, log.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put log for habit %s on %s: %w", log.HabitID, log.Date, err)
	}
	return nil
}

func (s *Store) MutateLog(ctx context.Context, habitID string, day utils.Day, fn storage.LogMutator) (models.HabitLog, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.HabitLog{}, err
	}
	defer tx.Rollback()

	var existing *models.HabitLog
	row := tx.QueryRowContext(ctx, "SELECT "+logColumns+" FROM habit_logs WHERE habit_id = $1 AND date = $2 FOR UPDATE", habitID, day.String())
	current, err := scanLog(row)
	switch {
	case err == nil:
		existing = &current
	case !errors.Is(err, sql.ErrNoRows):
		return models.HabitLog{}, err
	}

	next, err := fn(existing)
	if err != nil {
		return models.HabitLog{}, err
	}

	if existing == nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO habit_logs (`+logColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			next.ID, next.HabitID, next.Date, next.Completed, next.Notes, next.CreatedAt, next.UpdatedAt)
		if isUniqueViolation(err) {
			return models.HabitLog{}, fmt.Errorf("habit %s on %s: %w", habitID, day, apperr.ErrConflictLost)
		}
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE habit_logs SET completed = $1, notes = $2, updated_at = $3
			WHERE id = $4`,
			next.Completed, next.Notes, next.UpdatedAt, existing.ID)
	}
	if err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to write log for habit %s on %s: %w", habitID, day, err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return models.HabitLog{}, fmt.Errorf("habit %s on %s: %w", habitID, day, apperr.ErrConflictLost)
		}
		return models.HabitLog{}, err
	}
	return next, nil
}

func (s *Store) DeleteLogsForHabit(ctx context.Context, habitID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM habit_logs WHERE habit_id = $1", habitID); err != nil {
		return fmt.Errorf("failed to delete logs for habit %s: %w", habitID, err)
	}
	return nil
}

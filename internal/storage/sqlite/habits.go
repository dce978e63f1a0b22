package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
)

const habitColumns = "id, owner_id, name, description, type, created_at, updated_at"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var habitType, createdAt string
	var updatedAt sql.NullString

	if err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Description, &habitType, &createdAt, &updatedAt); err != nil {
		return models.Habit{}, err
	}
	h.Type = models.HabitType(habitType)

	var err error
	h.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
	}
	if updatedAt.Valid {
		t, err := parseTime(updatedAt.String)
		if err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse updated_at for habit %s: %w", h.ID, err)
		}
		h.UpdatedAt = &t
	}
	return h, nil
}

func nullTime(h models.Habit) sql.NullString {
	if h.UpdatedAt == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*h.UpdatedAt), Valid: true}
}

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.OwnerID, habit.Name, habit.Description, string(habit.Type),
		formatTime(habit.CreatedAt), nullTime(habit))
	if err != nil {
		return fmt.Errorf("failed to add habit %s: %w", habit.ID, err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id)
	h, err := scanHabit(row)
	if err != nil {
		return models.Habit{}, notFoundOr(err, "habit", id)
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, ownerID string) ([]models.Habit, error) {
	return s.queryHabits(ctx, "SELECT "+habitColumns+" FROM habits WHERE owner_id = ? ORDER BY created_at, id", ownerID)
}

func (s *Store) GetAllHabits(ctx context.Context) ([]models.Habit, error) {
	return s.queryHabits(ctx, "SELECT "+habitColumns+" FROM habits ORDER BY created_at, id")
}

func (s *Store) queryHabits(ctx context.Context, query string, args ...interface{}) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE habits SET owner_id = ?, name = ?, description = ?, type = ?, updated_at = ?
		WHERE id = ?`,
		habit.OwnerID, habit.Name, habit.Description, string(habit.Type), nullTime(habit), habit.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit %s: %w", habit.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("habit", habit.ID)
	}
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM habit_logs WHERE habit_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete logs for habit %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("habit", id)
	}
	return tx.Commit()
}

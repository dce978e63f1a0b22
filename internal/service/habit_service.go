// Package service holds the habit use cases shared by the CLI, TUI and HTTP API:
// ownership checks, validation, the per-day log write path and analytics snapshots.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlog/internal/constants"
	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/utils"
)

// HabitInput represents data required to create a habit.
type HabitInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// HabitUpdate carries the fields to change; nil fields are left alone.
type HabitUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// HabitService wraps habit-related business logic.
type HabitService struct {
	store storage.Provider
	now   func() time.Time
	slots *slotLocks
}

// Option configures a HabitService.
type Option func(*HabitService)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *HabitService) { s.now = now }
}

func NewHabitService(store storage.Provider, opts ...Option) *HabitService {
	s := &HabitService{
		store: store,
		now:   time.Now,
		slots: newSlotLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying provider for lifecycle commands.
func (s *HabitService) Store() storage.Provider {
	return s.store
}

// owned loads a habit and hides habits belonging to someone else.
func (s *HabitService) owned(ctx context.Context, ownerID, habitID string) (models.Habit, error) {
	if strings.TrimSpace(habitID) == "" {
		return models.Habit{}, apperr.Required("habitId")
	}
	habit, err := s.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if habit.OwnerID != ownerID {
		logger.Debug("habit owned by another user", "habit", habitID, "owner", ownerID)
		return models.Habit{}, apperr.NotFound("habit", habitID)
	}
	return habit, nil
}

func (s *HabitService) CreateHabit(ctx context.Context, ownerID string, input HabitInput) (models.Habit, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Habit{}, apperr.Required("name")
	}
	habitType, err := models.ParseHabitType(input.Type)
	if err != nil {
		return models.Habit{}, err
	}

	habit := models.Habit{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Type:        habitType,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.AddHabit(ctx, habit); err != nil {
		return models.Habit{}, err
	}
	logger.Info("habit created", "habit", habit.ID, "owner", ownerID, "type", habit.Type)
	return habit, nil
}

func (s *HabitService) GetHabit(ctx context.Context, ownerID, habitID string) (models.Habit, error) {
	return s.owned(ctx, ownerID, habitID)
}

func (s *HabitService) ListHabits(ctx context.Context, ownerID string) ([]models.Habit, error) {
	return s.store.ListHabits(ctx, ownerID)
}

func (s *HabitService) UpdateHabit(ctx context.Context, ownerID, habitID string, update HabitUpdate) (models.Habit, error) {
	habit, err := s.owned(ctx, ownerID, habitID)
	if err != nil {
		return models.Habit{}, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.Habit{}, apperr.Invalid("name", "must not be empty")
		}
		habit.Name = name
	}
	if update.Description != nil {
		habit.Description = strings.TrimSpace(*update.Description)
	}
	if update.Type != nil {
		habitType, err := models.ParseHabitType(*update.Type)
		if err != nil {
			return models.Habit{}, err
		}
		habit.Type = habitType
	}

	now := s.now().UTC()
	habit.UpdatedAt = &now
	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}

// DeleteHabit removes the habit and every log it owns.
func (s *HabitService) DeleteHabit(ctx context.Context, ownerID, habitID string) error {
	if _, err := s.owned(ctx, ownerID, habitID); err != nil {
		return err
	}
	if err := s.store.DeleteHabit(ctx, habitID); err != nil {
		return err
	}
	logger.Info("habit deleted", "habit", habitID, "owner", ownerID)
	return nil
}

// Today returns the current calendar day in the configured timezone.
func (s *HabitService) Today(ctx context.Context) (utils.Day, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return utils.Day{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return utils.Day{}, err
	}
	return utils.DayOf(s.now().In(loc)), nil
}

// ResolveWindow returns windowDays, or the configured default when windowDays is not positive.
func (s *HabitService) ResolveWindow(ctx context.Context, windowDays int) int {
	if windowDays > 0 {
		return windowDays
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil || settings.DefaultWindowDays <= 0 {
		return constants.DefaultWindowDays
	}
	return settings.DefaultWindowDays
}

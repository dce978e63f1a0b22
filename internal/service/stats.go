package service

import (
	"context"

	"github.com/julianstephens/habitlog/internal/analytics"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

// snapshot loads one habit and indexes its logs.
func (s *HabitService) snapshot(ctx context.Context, ownerID, habitID string) (models.Habit, *analytics.Index, error) {
	habit, err := s.owned(ctx, ownerID, habitID)
	if err != nil {
		return models.Habit{}, nil, err
	}
	logs, err := s.store.ListLogs(ctx, habitID)
	if err != nil {
		return models.Habit{}, nil, err
	}
	return habit, analytics.NewIndex(logs), nil
}

func (s *HabitService) IsCompleted(ctx context.Context, ownerID, habitID string, day utils.Day) (bool, error) {
	_, ix, err := s.snapshot(ctx, ownerID, habitID)
	if err != nil {
		return false, err
	}
	return ix.IsCompleted(habitID, day), nil
}

func (s *HabitService) CurrentStreak(ctx context.Context, ownerID, habitID string, today utils.Day) (int, error) {
	_, ix, err := s.snapshot(ctx, ownerID, habitID)
	if err != nil {
		return 0, err
	}
	return ix.CurrentStreak(habitID, today), nil
}

func (s *HabitService) CompletionRate(ctx context.Context, ownerID, habitID string, windowDays int, today utils.Day) (float64, error) {
	_, ix, err := s.snapshot(ctx, ownerID, habitID)
	if err != nil {
		return 0, err
	}
	return ix.CompletionRate(habitID, windowDays, today), nil
}

func (s *HabitService) HabitStats(ctx context.Context, ownerID, habitID string, today utils.Day, windowDays int) (models.HabitStats, error) {
	habit, ix, err := s.snapshot(ctx, ownerID, habitID)
	if err != nil {
		return models.HabitStats{}, err
	}
	return ix.Stats(habit, today, windowDays), nil
}

// Dashboard computes stats for all of the owner's habits from a single log fetch.
func (s *HabitService) Dashboard(ctx context.Context, ownerID string, today utils.Day, windowDays int) (models.Dashboard, error) {
	habits, err := s.store.ListHabits(ctx, ownerID)
	if err != nil {
		return models.Dashboard{}, err
	}
	logs, err := s.store.ListLogsForOwner(ctx, ownerID)
	if err != nil {
		return models.Dashboard{}, err
	}
	logger.Debug("dashboard snapshot", "owner", ownerID, "habits", len(habits), "logs", len(logs))
	return analytics.NewIndex(logs).Dashboard(habits, windowDays, today), nil
}

// Pending returns, per owner, the habits not yet completed on day.
func (s *HabitService) Pending(ctx context.Context, day utils.Day) (map[string][]models.Habit, error) {
	habits, err := s.store.GetAllHabits(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.GetAllLogs(ctx)
	if err != nil {
		return nil, err
	}
	ix := analytics.NewIndex(logs)

	pending := make(map[string][]models.Habit)
	for _, h := range habits {
		if !ix.IsCompleted(h.ID, day) {
			pending[h.OwnerID] = append(pending[h.OwnerID], h)
		}
	}
	return pending, nil
}

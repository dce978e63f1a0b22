// Package scheduler runs recurring jobs, such as the daily habit reminder, on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

// Scheduler wraps cron-based jobs.
type Scheduler struct {
	cron *cron.Cron
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
	}
}

// ValidateSpec checks a standard five-field cron expression (or a descriptor such as @daily).
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// Schedule registers job to run on spec.
func (s *Scheduler) Schedule(spec string, job func()) (cron.EntryID, error) {
	if err := ValidateSpec(spec); err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// Next returns the next activation time of entry, or the zero time if it is unknown.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// PendingSource reports the habits each owner has not completed on a day.
type PendingSource interface {
	Today(ctx context.Context) (utils.Day, error)
	Pending(ctx context.Context, day utils.Day) (map[string][]models.Habit, error)
}

// Notifier delivers a reminder to one owner.
type Notifier func(ownerID string, day utils.Day, pending []models.Habit)

// ReminderJob returns a cron job that notifies every owner with incomplete habits today.
func ReminderJob(ctx context.Context, src PendingSource, notify Notifier) func() {
	return func() {
		day, err := src.Today(ctx)
		if err != nil {
			logger.Error("reminder: failed to resolve today", "error", err)
			return
		}
		pending, err := src.Pending(ctx, day)
		if err != nil {
			logger.Error("reminder: failed to load pending habits", "error", err)
			return
		}

		owners := make([]string, 0, len(pending))
		for owner := range pending {
			owners = append(owners, owner)
		}
		sort.Strings(owners)

		for _, owner := range owners {
			notify(owner, day, pending[owner])
		}
		logger.Debug("reminder run complete", "date", day.String(), "owners", len(owners))
	}
}

// LogNotifier writes reminders to the application log.
func LogNotifier(ownerID string, day utils.Day, pending []models.Habit) {
	names := make([]string, len(pending))
	for i, h := range pending {
		names[i] = h.Name
	}
	logger.Info("habits still open today",
		"owner", ownerID,
		"date", day.String(),
		"count", len(pending),
		"habits", strings.Join(names, ", "),
	)
}

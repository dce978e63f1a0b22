package cli

import (
	"context"
	"strings"

	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/utils"
)

// Context is passed to every command's Run method.
type Context struct {
	Store   storage.Provider
	Service *service.HabitService
	// Owner overrides the owner stored in settings when non-empty.
	Owner string
}

func NewContext(store storage.Provider, owner string, opts ...service.Option) *Context {
	return &Context{
		Store:   store,
		Service: service.NewHabitService(store, opts...),
		Owner:   strings.TrimSpace(owner),
	}
}

// OwnerID returns the owner the command acts as.
func (c *Context) OwnerID(ctx context.Context) (string, error) {
	if c.Owner != "" {
		return c.Owner, nil
	}
	settings, err := c.Store.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	if settings.OwnerID == "" {
		return "", apperr.Required("owner")
	}
	return settings.OwnerID, nil
}

// ResolveDay accepts YYYY-MM-DD, "today", "yesterday", or empty for today.
func (c *Context) ResolveDay(ctx context.Context, value string) (utils.Day, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "today":
		return c.Service.Today(ctx)
	case "yesterday":
		today, err := c.Service.Today(ctx)
		if err != nil {
			return utils.Day{}, err
		}
		return today.AddDays(-1), nil
	}
	day, err := utils.ParseDay(value)
	if err != nil {
		return utils.Day{}, apperr.Invalid("date", "expected YYYY-MM-DD, today or yesterday, got %q", value)
	}
	return day, nil
}

// FindHabit resolves ref as a habit id, falling back to a case-insensitive name match.
func (c *Context) FindHabit(ctx context.Context, ownerID, ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Habit{}, apperr.Required("habit")
	}

	habit, err := c.Service.GetHabit(ctx, ownerID, ref)
	if err == nil {
		return habit, nil
	}
	if !apperr.IsNotFound(err) {
		return models.Habit{}, err
	}

	habits, err := c.Service.ListHabits(ctx, ownerID)
	if err != nil {
		return models.Habit{}, err
	}
	var matches []models.Habit
	for _, h := range habits {
		if strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, apperr.NotFound("habit", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, apperr.Invalid("habit", "%d habits are named %q, use the id instead", len(matches), ref)
	}
}

package habits

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/service"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and all of its logs."`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit with its current stats."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `help:"Optional description." short:"d"`
	Type        string `help:"Habit type (spiritual, emotional, economical, mental, general, physical)." short:"t" default:"general"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return err
	}

	habit, err := ctx.Service.CreateHabit(bg, owner, service.HabitInput{
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added habit: %s (%s)\n", habit.Name, habit.Type)
	fmt.Printf("  ID: %s\n", habit.ID)
	return nil
}

type HabitListCmd struct {
	Type string `help:"Only list habits of this type." short:"t"`
	JSON bool   `help:"Print habits as JSON."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return err
	}

	habits, err := ctx.Service.ListHabits(bg, owner)
	if err != nil {
		return err
	}
	if c.Type != "" {
		typ, err := models.ParseHabitType(c.Type)
		if err != nil {
			return err
		}
		habits = filterByType(habits, typ)
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(habits)
	}

	if len(habits) == 0 {
		fmt.Println("No habits found. Add one with 'habitlog habit add <name>'.")
		return nil
	}

	fmt.Println(renderHabitTable(habits))
	return nil
}

func filterByType(habits []models.Habit, typ models.HabitType) []models.Habit {
	var out []models.Habit
	for _, h := range habits {
		if h.Type == typ {
			out = append(out, h)
		}
	}
	return out
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderHabitTable(habits []models.Habit) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "TYPE", "CREATED", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, h := range habits {
		t.Row(h.Name, string(h.Type), h.CreatedAt.Local().Format(constants.DateFormat), h.ID)
	}
	return t.Render()
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit ID or name."`
	Name        *string `help:"New name."`
	Description *string `help:"New description." short:"d"`
	Type        *string `help:"New type." short:"t"`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	if c.Name == nil && c.Description == nil && c.Type == nil {
		return fmt.Errorf("nothing to change, pass --name, --description or --type")
	}

	bg := context.Background()
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(bg, owner, c.Habit)
	if err != nil {
		return err
	}

	updated, err := ctx.Service.UpdateHabit(bg, owner, habit.ID, service.HabitUpdate{
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Updated habit: %s (%s)\n", updated.Name, updated.Type)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	Yes   bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(bg, owner, c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q and all of its logs?", habit.Name)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := ctx.Service.DeleteHabit(bg, owner, habit.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted habit: %s\n", habit.Name)
	return nil
}

type HabitShowCmd struct {
	Habit  string `arg:"" help:"Habit ID or name."`
	Window int    `help:"Completion rate window in days (defaults to the configured window)." short:"w"`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return err
	}
	habit, err := ctx.FindHabit(bg, owner, c.Habit)
	if err != nil {
		return err
	}
	today, err := ctx.Service.Today(bg)
	if err != nil {
		return err
	}
	stats, err := ctx.Service.HabitStats(bg, owner, habit.ID, today, ctx.Service.ResolveWindow(bg, c.Window))
	if err != nil {
		return err
	}

	fmt.Println(describeHabit(habit, stats))
	return nil
}

func describeHabit(h models.Habit, s models.HabitStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", lipgloss.NewStyle().Bold(true).Render(h.Name))
	if h.Description != "" {
		fmt.Fprintf(&b, "  %s\n", h.Description)
	}
	fmt.Fprintf(&b, "  Type:            %s\n", h.Type)
	fmt.Fprintf(&b, "  Created:         %s\n", h.CreatedAt.Local().Format(constants.DateFormat))
	fmt.Fprintf(&b, "  Done today:      %s\n", yesNo(s.CompletedToday))
	fmt.Fprintf(&b, "  Current streak:  %d day(s)\n", s.CurrentStreak)
	fmt.Fprintf(&b, "  Longest streak:  %d day(s)\n", s.LongestStreak)
	fmt.Fprintf(&b, "  Completion rate: %.1f%% over %d days\n", s.CompletionRate, s.WindowDays)
	fmt.Fprintf(&b, "  Total completed: %d\n", s.TotalCompleted)
	fmt.Fprintf(&b, "  ID:              %s", h.ID)
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

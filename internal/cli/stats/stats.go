package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/insights"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// analyticsArgs are shared by the analytics commands.
type analyticsArgs struct {
	Window int    `help:"Window in days (defaults to the configured window)." short:"w"`
	Date   string `help:"Day to compute as of (YYYY-MM-DD, today, yesterday)." default:"today"`
}

func (a analyticsArgs) resolve(bg context.Context, ctx *cli.Context) (string, utils.Day, int, error) {
	if a.Window < 0 {
		return "", utils.Day{}, 0, fmt.Errorf("--window must not be negative")
	}
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return "", utils.Day{}, 0, err
	}
	day, err := ctx.ResolveDay(bg, a.Date)
	if err != nil {
		return "", utils.Day{}, 0, err
	}
	return owner, day, ctx.Service.ResolveWindow(bg, a.Window), nil
}

type StatsCmd struct {
	Habit string        `arg:"" optional:"" help:"Habit ID or name; the full dashboard when omitted."`
	Args  analyticsArgs `embed:""`
	JSON  bool          `help:"Print stats as JSON."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, day, window, err := c.Args.resolve(bg, ctx)
	if err != nil {
		return err
	}

	if c.Habit != "" {
		habit, err := ctx.FindHabit(bg, owner, c.Habit)
		if err != nil {
			return err
		}
		stats, err := ctx.Service.HabitStats(bg, owner, habit.ID, day, window)
		if err != nil {
			return err
		}
		if c.JSON {
			return printJSON(stats)
		}
		fmt.Print(renderStatsTable([]models.HabitStats{stats}))
		return nil
	}

	dash, err := ctx.Service.Dashboard(bg, owner, day, window)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(dash)
	}
	fmt.Print(renderDashboard(dash))
	return nil
}

type TrendCmd struct {
	Args analyticsArgs `embed:""`
}

func (c *TrendCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, day, window, err := c.Args.resolve(bg, ctx)
	if err != nil {
		return err
	}
	dash, err := ctx.Service.Dashboard(bg, owner, day, window)
	if err != nil {
		return err
	}
	if len(dash.Habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("Daily completion, last %d days", window)))
	fmt.Print(renderTrend(dash.Trend))
	return nil
}

type InsightsCmd struct {
	Args analyticsArgs `embed:""`
}

func (c *InsightsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, day, window, err := c.Args.resolve(bg, ctx)
	if err != nil {
		return err
	}
	suggestions, err := insights.NewAnalyzer(ctx.Service).AnalyzeOwner(bg, owner, day, window)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Println("Nothing to report. Keep going!")
		return nil
	}
	for _, s := range suggestions {
		fmt.Printf("%s %s: %s\n", titleStyle.Render(s.HabitName), dimStyle.Render("["+string(s.Kind)+"]"), s.Reason)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatsTable(stats []models.HabitStats) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("HABIT", "TYPE", "TODAY", "STREAK", "BEST", "RATE", "TOTAL")
	for _, s := range stats {
		today := "·"
		if s.CompletedToday {
			today = "✓"
		}
		t.Row(
			s.Name,
			string(s.Type),
			today,
			fmt.Sprintf("%d", s.CurrentStreak),
			fmt.Sprintf("%d", s.LongestStreak),
			fmt.Sprintf("%.0f%%", s.CompletionRate),
			fmt.Sprintf("%d", s.TotalCompleted),
		)
	}
	return t.Render() + "\n"
}

func renderDashboard(d models.Dashboard) string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("Dashboard for %s (%d-day window)", d.Date, d.WindowDays)))
	fmt.Fprintf(&b, "Today: %d of %d habits done (%.0f%%)\n\n", d.Today.Completed, d.Today.Total, d.Today.Rate)
	if len(d.Habits) == 0 {
		b.WriteString("No habits found.\n")
		return b.String()
	}
	b.WriteString(renderStatsTable(d.Habits))

	if len(d.ByType) > 0 {
		b.WriteString("\nBy type:\n")
		for _, tb := range d.ByType {
			fmt.Fprintf(&b, "  %-11s %2d habit(s)  %4d done  %5.1f%%\n", tb.Type, tb.Habits, tb.Completed, tb.Rate)
		}
	}
	return b.String()
}

const barWidth = 30

func renderTrend(trend []models.DayProgress) string {
	var b strings.Builder
	for _, p := range trend {
		day, err := utils.ParseDay(p.Date)
		label := p.Date
		if err == nil {
			label = day.Format(constants.DisplayDateFormat)
		}
		filled := int(p.Rate / 100 * barWidth)
		bar := barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(&b, "%-7s %s %d/%d\n", label, bar, p.Completed, p.Total)
	}
	return b.String()
}

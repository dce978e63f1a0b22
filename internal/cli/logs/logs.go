package logs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/utils"
)

type LogCmd struct {
	Toggle  LogToggleCmd  `cmd:"" help:"Flip a habit's completion for a day."`
	Record  LogRecordCmd  `cmd:"" help:"Set a habit's completion for a day."`
	List    LogListCmd    `cmd:"" help:"List habit logs."`
	History LogHistoryCmd `cmd:"" help:"Show a day-by-day completion grid."`
}

type LogToggleCmd struct {
	Habit string  `arg:"" help:"Habit ID or name."`
	Date  string  `help:"Day to toggle (YYYY-MM-DD, today, yesterday)." default:"today"`
	Notes *string `help:"Notes to store with the log." short:"n"`
}

func (c *LogToggleCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, day, owner, err := resolveSlot(bg, ctx, c.Habit, c.Date)
	if err != nil {
		return err
	}

	res, err := ctx.Service.ToggleCompletion(bg, owner, habit.ID, day.String(), c.Notes)
	if err != nil {
		return err
	}
	printResult(habit, res)
	return nil
}

type LogRecordCmd struct {
	Habit     string  `arg:"" help:"Habit ID or name."`
	Date      string  `help:"Day to record (YYYY-MM-DD, today, yesterday)." default:"today"`
	Completed bool    `help:"Mark the day completed (use --no-completed to clear)." default:"true" negatable:""`
	Notes     *string `help:"Notes to store with the log; omitted keeps existing notes." short:"n"`
}

func (c *LogRecordCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	habit, day, owner, err := resolveSlot(bg, ctx, c.Habit, c.Date)
	if err != nil {
		return err
	}

	res, err := ctx.Service.RecordCompletion(bg, owner, habit.ID, day.String(), c.Completed, c.Notes)
	if err != nil {
		return err
	}
	printResult(habit, res)
	return nil
}

func resolveSlot(bg context.Context, ctx *cli.Context, ref, date string) (models.Habit, utils.Day, string, error) {
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return models.Habit{}, utils.Day{}, "", err
	}
	habit, err := ctx.FindHabit(bg, owner, ref)
	if err != nil {
		return models.Habit{}, utils.Day{}, "", err
	}
	day, err := ctx.ResolveDay(bg, date)
	if err != nil {
		return models.Habit{}, utils.Day{}, "", err
	}
	return habit, day, owner, nil
}

func printResult(habit models.Habit, res service.WriteResult) {
	state := "not done"
	if res.Log.Completed {
		state = "done"
	}
	verb := "Updated"
	if res.Created {
		verb = "Logged"
	}
	fmt.Printf("%s %s on %s: %s\n", verb, habit.Name, res.Log.Date, state)
	if res.Log.Notes != "" {
		fmt.Printf("  Notes: %s\n", res.Log.Notes)
	}
}

type LogListCmd struct {
	Habit string `help:"Only logs of this habit (ID or name)."`
	Date  string `help:"Only logs for this day (YYYY-MM-DD)."`
	JSON  bool   `help:"Print logs as JSON."`
}

func (c *LogListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return err
	}

	filter := service.LogFilter{Date: c.Date}
	names := make(map[string]string)
	if c.Habit != "" {
		habit, err := ctx.FindHabit(bg, owner, c.Habit)
		if err != nil {
			return err
		}
		filter.HabitID = habit.ID
		names[habit.ID] = habit.Name
	} else {
		habits, err := ctx.Service.ListHabits(bg, owner)
		if err != nil {
			return err
		}
		for _, h := range habits {
			names[h.ID] = h.Name
		}
	}

	logs, err := ctx.Service.ListLogs(bg, owner, filter)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(logs)
	}
	if len(logs) == 0 {
		fmt.Println("No logs found.")
		return nil
	}
	for _, log := range logs {
		mark := "[ ]"
		if log.Completed {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", log.Date, mark, names[log.HabitID])
		if log.Notes != "" {
			line += "  - " + log.Notes
		}
		fmt.Println(line)
	}
	return nil
}

type LogHistoryCmd struct {
	Habit string `arg:"" optional:"" help:"Habit ID or name; all habits when omitted."`
	Days  int    `help:"Number of days to show." default:"14" short:"n"`
}

func (c *LogHistoryCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	bg := context.Background()
	owner, err := ctx.OwnerID(bg)
	if err != nil {
		return err
	}

	var habits []models.Habit
	if c.Habit != "" {
		habit, err := ctx.FindHabit(bg, owner, c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{habit}
	} else {
		habits, err = ctx.Service.ListHabits(bg, owner)
		if err != nil {
			return err
		}
	}
	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	end, err := ctx.Service.Today(bg)
	if err != nil {
		return err
	}
	start := end.AddDays(-(c.Days - 1))

	rows := make([]historyRow, 0, len(habits))
	for _, h := range habits {
		logs, err := ctx.Service.History(bg, owner, h.ID, start, end)
		if err != nil {
			return err
		}
		done := make(map[string]bool, len(logs))
		for _, log := range logs {
			done[log.Date] = log.Completed
		}
		rows = append(rows, historyRow{name: h.Name, done: done})
	}

	fmt.Printf("Habit log (last %d days):\n\n", c.Days)
	fmt.Print(renderHistory(rows, utils.DayRange(start, end)))
	return nil
}

type historyRow struct {
	name string
	done map[string]bool
}

const nameWidth = 20

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func renderHistory(rows []historyRow, days []utils.Day) string {
	var b strings.Builder

	b.WriteString(padName("Habit"))
	for _, d := range days {
		fmt.Fprintf(&b, " %5s", d.Format("01/02"))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", nameWidth+6*len(days)))
	b.WriteString("\n")

	for _, row := range rows {
		b.WriteString(padName(row.name))
		for _, d := range days {
			if row.done[d.String()] {
				b.WriteString("     " + doneStyle.Render("✓"))
			} else {
				b.WriteString("     " + missingStyle.Render("·"))
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s to %s\n", days[0].Format(constants.DisplayDateFormat), days[len(days)-1].Format(constants.DisplayDateFormat))
	return b.String()
}

func padName(name string) string {
	runes := []rune(name)
	if len(runes) > nameWidth {
		return string(runes[:nameWidth-3]) + "..."
	}
	return name + strings.Repeat(" ", nameWidth-len(runes))
}

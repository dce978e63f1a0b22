package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/models"
)

type DebugCmd struct {
	DBPath       DebugDBPathCmd       `cmd:"" help:"Show database path."`
	DumpHabit    DebugDumpHabitCmd    `cmd:"" help:"Dump a habit as JSON."`
	DumpLogs     DebugDumpLogsCmd     `cmd:"" help:"Dump the logs of a habit as JSON."`
	DumpSettings DebugDumpSettingsCmd `cmd:"" help:"Dump settings as JSON."`
}

func printJSON(v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpHabitCmd struct {
	ID string `arg:"" help:"ID of the habit to dump."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.Store.GetHabit(context.Background(), cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get habit: %w", err)
	}
	return printJSON(habit)
}

type DebugDumpLogsCmd struct {
	HabitID string `arg:"" help:"ID of the habit whose logs to dump."`
}

func (cmd *DebugDumpLogsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if _, err := ctx.Store.GetHabit(bg, cmd.HabitID); err != nil {
		return fmt.Errorf("failed to get habit: %w", err)
	}
	logs, err := ctx.Store.ListLogs(bg, cmd.HabitID)
	if err != nil {
		return fmt.Errorf("failed to list logs: %w", err)
	}
	if logs == nil {
		logs = []models.HabitLog{}
	}
	return printJSON(logs)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(settings)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/cli/backups"
	"github.com/julianstephens/habitlog/internal/cli/habits"
	"github.com/julianstephens/habitlog/internal/cli/logs"
	"github.com/julianstephens/habitlog/internal/cli/settings"
	"github.com/julianstephens/habitlog/internal/cli/stats"
	"github.com/julianstephens/habitlog/internal/cli/system"
	"github.com/julianstephens/habitlog/internal/constants"
	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/utils"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite or JSON file path, or PostgreSQL connection string (default ${default_config}). Credentials must NOT be embedded on the command line; use ${env_conn}, .pgpass or the OS keyring instead." env:"HABITLOG_CONFIG"`
	Owner   string `help:"Act as this owner instead of the one in settings." env:"HABITLOG_OWNER"`
	Debug   bool   `help:"Enable debug logging." env:"HABITLOG_DEBUG"`

	Init     system.InitCmd       `cmd:"" help:"Initialize habitlog storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Serve    system.ServeCmd      `cmd:"" help:"Serve the HTTP API and run scheduled reminders."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits."`
	Log      logs.LogCmd          `cmd:"" help:"Record and review daily habit logs."`
	Stats    stats.StatsCmd       `cmd:"" help:"Show streaks and completion rates."`
	Trend    stats.TrendCmd       `cmd:"" help:"Show the daily completion trend."`
	Insights stats.InsightsCmd    `cmd:"" help:"Suggest where to focus next."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   backups.BackupCmd    `cmd:"" help:"Create, list and restore backups of the SQLite or JSON store."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage the database connection stored in the OS keyring."`
	DebugCmd system.DebugCmd      `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

// commands that manage their own storage lifecycle or need none
var skipLoad = map[string]bool{
	"init":    true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	// A missing .env file is normal
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracking with streaks, completion rates and trends."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
			"env_conn":       constants.EnvDBConnection,
		},
	)

	apperr.Fatal(run(kctx))
}

func run(kctx *kong.Context) error {
	command := strings.Fields(kctx.Command())
	top := ""
	if len(command) > 0 {
		top = command[0]
	}

	config := strings.TrimSpace(CLI.Config)
	explicit := config != ""
	if !explicit {
		config = constants.DefaultConfigPath
	}

	if err := initLogger(top == "serve"); err != nil {
		// Logging is best effort; commands still run without a log file.
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := cli.OpenStore(config, explicit)
	if err != nil {
		return err
	}
	defer store.Close()

	if !skipLoad[top] {
		if err := store.Load(context.Background()); err != nil {
			return err
		}
	}

	logger.Debug("running command", "command", kctx.Command(), "store", store.GetConfigPath())
	return kctx.Run(cli.NewContext(store, CLI.Owner))
}

func initLogger(console bool) error {
	configPath, err := utils.ExpandPath(constants.DefaultConfigPath)
	if err != nil {
		return err
	}
	return logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Dir(configPath),
		Console:   console,
	})
}

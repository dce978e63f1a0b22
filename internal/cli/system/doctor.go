package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/keyring"
	"github.com/julianstephens/habitlog/internal/scheduler"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/storage/postgres"
	"github.com/julianstephens/habitlog/internal/utils"
	"github.com/julianstephens/habitlog/internal/validation"
)

type DoctorCmd struct{}

// check is one diagnostic. Warnings are reported but never fail the run.
type check struct {
	name       string
	needsStore bool
	warnOnly   bool
	run        func(context.Context, *cli.Context) error
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", needsStore: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsStore: true, run: checkMigrationsComplete},
	{name: "Settings", needsStore: true, run: checkSettings},
	{name: "Data integrity", needsStore: true, run: checkIntegrity},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	bg := context.Background()
	hasError := false
	dbReachable := false

	for i, c := range checks {
		if c.needsStore && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}

		err := c.run(bg, ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
		if i == 0 {
			dbReachable = err == nil
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(bg context.Context, ctx *cli.Context) error {
	if err := ctx.Store.Load(bg); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if sqlStore, ok := ctx.Store.(storage.SQLProvider); ok {
		db := sqlStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRowContext(bg, "SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(bg context.Context, ctx *cli.Context) error {
	sqlStore, ok := ctx.Store.(storage.SQLProvider)
	if !ok {
		// JSON store has no schema version
		return nil
	}
	runner, err := sqlStore.MigrationRunner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func checkMigrationsComplete(bg context.Context, ctx *cli.Context) error {
	sqlStore, ok := ctx.Store.(storage.SQLProvider)
	if !ok {
		return nil
	}
	runner, err := sqlStore.MigrationRunner()
	if err != nil {
		return err
	}
	status, err := runner.Status()
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	if len(status.Pending) > 0 {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'habitlog migrate')", status.Current, status.Latest)
	}
	return nil
}

func checkSettings(bg context.Context, ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings(bg)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("timezone %q cannot be loaded", settings.Timezone)
	}
	if settings.OwnerID == "" {
		return fmt.Errorf("default owner is empty (set it with 'habitlog settings --default-owner')")
	}
	if settings.ReminderSpec != "" {
		if err := scheduler.ValidateSpec(settings.ReminderSpec); err != nil {
			return err
		}
	}
	if settings.DefaultWindowDays < 1 {
		return fmt.Errorf("default window must be at least 1 day, got %d", settings.DefaultWindowDays)
	}
	return nil
}

func checkIntegrity(bg context.Context, ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(bg)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	logs, err := ctx.Store.GetAllLogs(bg)
	if err != nil {
		return fmt.Errorf("failed to get habit logs: %w", err)
	}

	result := validation.New().CheckLogs(habits, logs)
	if result.HasIssues() {
		return fmt.Errorf("%d issue(s) found\n%s", len(result.Issues), result.FormatReport())
	}
	return nil
}

func checkClockTimezone(bg context.Context, ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkKeyring(bg context.Context, ctx *cli.Context) error {
	if _, ok := ctx.Store.(*postgres.Store); !ok {
		return nil
	}
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; use %s or .pgpass for credentials", constants.EnvDBConnection)
	}
	return nil
}

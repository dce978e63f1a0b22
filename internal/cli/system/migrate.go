package system

import (
	"fmt"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/storage"
)

type MigrateCmd struct {
	Status bool `help:"Show the schema version and pending migrations without applying them."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	sqlStore, ok := ctx.Store.(storage.SQLProvider)
	if !ok {
		fmt.Println("JSON storage has no schema. Nothing to migrate.")
		return nil
	}

	runner, err := sqlStore.MigrationRunner()
	if err != nil {
		return err
	}

	if c.Status {
		status, err := runner.Status()
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		fmt.Printf("Current schema version: %d\n", status.Current)
		fmt.Printf("Latest schema version:  %d\n", status.Latest)
		if len(status.Pending) == 0 {
			fmt.Println("Database is up to date.")
			return nil
		}
		fmt.Println("Pending migrations:")
		for _, m := range status.Pending {
			fmt.Printf("  %03d %s\n", m.Version, m.Name)
		}
		return nil
	}

	count, err := runner.ApplyMigrations(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}

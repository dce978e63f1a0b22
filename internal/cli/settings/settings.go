package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/habitlog/internal/cli"
	"github.com/julianstephens/habitlog/internal/scheduler"
	"github.com/julianstephens/habitlog/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone     *string `help:"IANA timezone used to decide what 'today' is (or 'Local')."`
	DefaultOwner *string `help:"Owner the CLI and TUI act as when --owner is not given."`
	Reminder     *string `help:"Cron expression for the daily reminder; empty disables it."`
	Window       *int    `help:"Default completion rate window in days."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	settings, err := ctx.Store.GetSettings(bg)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		reminder := settings.ReminderSpec
		if reminder == "" {
			reminder = "(disabled)"
		}
		fmt.Println("Current Settings:")
		fmt.Printf("  Timezone:       %s\n", settings.Timezone)
		fmt.Printf("  Default Owner:  %s\n", settings.OwnerID)
		fmt.Printf("  Reminder:       %s\n", reminder)
		fmt.Printf("  Default Window: %d days\n", settings.DefaultWindowDays)
		return nil
	}

	updated := false
	if c.Timezone != nil {
		tz := strings.TrimSpace(*c.Timezone)
		if !utils.ValidateTimezone(tz) {
			return fmt.Errorf("invalid timezone %q", tz)
		}
		settings.Timezone = tz
		updated = true
	}
	if c.DefaultOwner != nil {
		owner := strings.TrimSpace(*c.DefaultOwner)
		if owner == "" {
			return fmt.Errorf("default owner cannot be empty")
		}
		settings.OwnerID = owner
		updated = true
	}
	if c.Reminder != nil {
		spec := strings.TrimSpace(*c.Reminder)
		if spec != "" {
			if err := scheduler.ValidateSpec(spec); err != nil {
				return err
			}
		}
		settings.ReminderSpec = spec
		updated = true
	}
	if c.Window != nil {
		if *c.Window < 1 {
			return fmt.Errorf("window must be at least 1 day, got %d", *c.Window)
		}
		settings.DefaultWindowDays = *c.Window
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(bg, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings updated successfully.")
	} else {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}

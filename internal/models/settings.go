package models

// Settings represents application-wide settings
type Settings struct {
	Timezone          string `json:"timezone"`            // IANA timezone name (e.g. "America/New_York", or "Local" for system timezone)
	OwnerID           string `json:"owner_id"`            // owner the CLI and TUI act as
	ReminderSpec      string `json:"reminder_spec"`       // cron expression for the reminder job, empty disables it
	DefaultWindowDays int    `json:"default_window_days"` // completion rate window used when none is given
}

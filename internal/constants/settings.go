package constants

import "time"

const (
	// Setting keys
	SettingTimezone          = "timezone"
	SettingOwnerID           = "owner_id"
	SettingReminderSpec      = "reminder_spec"
	SettingDefaultWindowDays = "default_window_days"

	// Default Settings Values
	DefaultTimezone        = "Local" // Use system local timezone by default
	DefaultOwnerID         = "local"
	DefaultReminderSpec    = "0 20 * * *" // every day at 20:00
	DefaultWindowDays      = 30
	DefaultHistoryDays     = 14
	DefaultServeAddr       = ":3000"
	DefaultRateLimitPerSec = 10
	DefaultRateLimitBurst  = 20
	DefaultShutdownTimeout = 10 // seconds
)

// WebhookTimeout bounds a single reminder delivery.
const WebhookTimeout = 10 * time.Second

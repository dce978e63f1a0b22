package constants

const (
	AppName            = "habitlog"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitlog/habitlog.db"
	Version            = "v0.3.0"

	// Environment variable holding a PostgreSQL connection string
	EnvDBConnection = "HABITLOG_DB_CONNECTION"

	// HTTP header carrying the acting owner, set by the fronting proxy
	OwnerHeader = "X-User-ID"

	// Backends
	JSONStoreSuffix = ".json"
)

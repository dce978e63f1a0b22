// Package migrations embeds the forward-only SQL schema for each backend.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// For returns the migration files for a backend directory ("sqlite" or "postgres").
func For(backend string) (fs.FS, error) {
	return fs.Sub(FS, backend)
}

// Package migrations embeds the goose migrations for the SQL stores, one
// directory per dialect.
package migrations

import "embed"

//go:embed mysql/*.sql sqlite3/*.sql
var FS embed.FS

package migrations

import "embed"

// FS contains embedded SQLite migrations for the local cache.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS contains embedded PostgreSQL migrations for marketplace storage.
//
//go:embed *.sql
var FS embed.FS

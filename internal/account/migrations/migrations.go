// Package migrations embeds the accounts schema's goose migration files
// so the binary can run them without a separate migrations directory on
// disk (grounded on udisondev-la2go's internal/db/migrations package).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

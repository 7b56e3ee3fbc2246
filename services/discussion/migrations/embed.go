package migrations

import "embed"

// FS holds the goose SQL migrations of the discussion service.
//
//go:embed *.sql
var FS embed.FS

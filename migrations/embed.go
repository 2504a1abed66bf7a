package migrations

import "embed"

// FS contains the embedded registry store migrations.
//
//go:embed *.sql
var FS embed.FS

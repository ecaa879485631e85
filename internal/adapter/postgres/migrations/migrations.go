// Package migrations embeds the goose migrations of the spill database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations embeds the goose migrations of the data service's
// PostgreSQL database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

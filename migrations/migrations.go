// Package migrations embeds the SQL schema migrations applied at startup
// or via the migrate command.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

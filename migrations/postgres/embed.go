// Package migrations embeds the SQL migration files.
package migrations

import "embed"

// FS contains the postgres migrations (*_up.sql / *_down.sql pairs,
// applied in lexical order).
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the SQL schema applied at server start.
package migrations

import "embed"

// FS holds the *.sql files in lexicographic apply order.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the snapshot database schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

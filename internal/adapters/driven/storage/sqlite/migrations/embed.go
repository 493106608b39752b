// Package migrations embeds the schema scripts of the tracker database.
package migrations

import "embed"

// FS holds the numbered NNN_name.up.sql and .down.sql scripts. Only the up
// scripts are applied, in version order.
//
//go:embed *.sql
var FS embed.FS

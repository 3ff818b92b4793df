// Package migrations embeds the versioned schema for each supported SQL
// dialect. Files follow golang-migrate's NNNN_name.{up,down}.sql convention
// and are applied by sqlstore.Open.
package migrations

import "embed"

// FS holds one directory per dialect: sqlite/ and postgres/.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

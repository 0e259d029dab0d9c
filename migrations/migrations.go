// Package migrations embeds the SQL schema files for each storage driver.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

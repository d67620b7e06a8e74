// Package migrations embeds the schema of the credential store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

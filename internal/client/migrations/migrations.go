// Package migrations embeds the client's goose SQL migrations for the local
// SQLite session store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

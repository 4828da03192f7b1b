// Package migrations embeds the Frontdesk SQL schema into the binary.
//
// Importing this package for its side effect registers the files with the
// database package:
//
//	import _ "github.com/nerrad567/frontdesk-core/migrations"
package migrations

import (
	"embed"

	"github.com/nerrad567/frontdesk-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}

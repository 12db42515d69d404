// Package migrations holds the Postgres schema applied by the bun migrator.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()

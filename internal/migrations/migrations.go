package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry all migration files register into via init.
var Migrations = migrate.NewMigrations()

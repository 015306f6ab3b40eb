package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// IsSQLite reports whether the connected database speaks SQLite.
// Migrations branch on this for type affinities SQLite lacks.
func IsSQLite(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.SQLite
}

// IsPostgreSQL reports whether the connected database speaks PostgreSQL.
func IsPostgreSQL(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}

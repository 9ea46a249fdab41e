package tracker

import "embed"

// MigrationsFS contains the tracker tables for both PostgreSQL and SQLite.
//
// Root files (data/sql/migrations/*.sql) target PostgreSQL and the SQLite
// overrides live in data/sql/migrations/sqlite/*.sql. go-persistence-bun
// picks the set matching the configured dialect:
//
//	migrationsFS, _ := fs.Sub(tracker.MigrationsFS, "data/sql/migrations")
//	client.RegisterDialectMigrations(
//	    migrationsFS,
//	    persistence.WithDialectSourceLabel("."),
//	    persistence.WithValidationTargets("postgres", "sqlite"),
//	)
//
//go:embed data/sql/migrations
var MigrationsFS embed.FS

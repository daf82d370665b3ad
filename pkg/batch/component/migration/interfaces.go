// Package migration applies the schema migrations of sheetload and of the
// application importing into its own tables.
package migration

import (
	"context"
	"io/fs"
)

// Fixed table names for migration tracking.
const (
	FrameworkMigrationsTable = "sheetload_migrations"
	AppMigrationsTable       = "sheetload_app_migrations"
)

// Migrator handles database schema migrations.
type Migrator interface {
	// Up applies all pending migrations found in dir of migrationFS.
	// tableName tracks the applied versions.
	Up(ctx context.Context, migrationFS fs.FS, dir string, tableName string) error
	// Down rolls back all applied migrations.
	Down(ctx context.Context, migrationFS fs.FS, dir string, tableName string) error
	// Version returns the current version and whether the last migration failed half-way.
	// ok is false when no migration was applied yet.
	Version(ctx context.Context, migrationFS fs.FS, dir string, tableName string) (version uint, dirty bool, ok bool, err error)
}

package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/database"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// sqlMigrator runs golang-migrate against the *sql.DB of a connection.
// Closing a migrate instance closes that *sql.DB, so callers reconnect afterwards.
type sqlMigrator struct {
	dbConn database.DBConnection
	dbType string
}

// NewMigrator creates a Migrator for dbConn.
func NewMigrator(dbConn database.DBConnection) Migrator {
	return &sqlMigrator{dbConn: dbConn, dbType: dbConn.Type()}
}

func (m *sqlMigrator) databaseDriver(sqlDB *sql.DB, tableName string) (migratedb.Driver, error) {
	switch m.dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: tableName})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{MigrationsTable: tableName})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{MigrationsTable: tableName})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

func (m *sqlMigrator) open(migrationFS fs.FS, dir string, tableName string) (*migrate.Migrate, error) {
	sqlDB, err := m.dbConn.GetSQLDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver for path %s: %w", dir, err)
	}
	dbDriver, err := m.databaseDriver(sqlDB, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}
	instance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return instance, nil
}

func (m *sqlMigrator) run(ctx context.Context, migrationFS fs.FS, dir string, tableName string, command string) error {
	logger.Infof("Executing migration '%s' (Connection: %s, Path: %s, Table: %s)", command, m.dbConn.Name(), dir, tableName)

	if err := ctx.Err(); err != nil {
		return err
	}
	instance, err := m.open(migrationFS, dir, tableName)
	if err != nil {
		return err
	}
	defer closeInstance(instance)

	switch command {
	case "up":
		err = instance.Up()
	case "down":
		err = instance.Down()
	default:
		return fmt.Errorf("unsupported migration command: %s", command)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if version, dirty, versionErr := instance.Version(); versionErr == nil {
			logger.Errorf("Migration '%s' failed at version %d (dirty: %t).", command, version, dirty)
		}
		return fmt.Errorf("migration failed for command '%s' (DB: %s, Path: %s): %w", command, m.dbType, dir, err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Infof("Migration '%s': no change (Table: %s).", command, tableName)
		return nil
	}
	logger.Infof("Migration '%s' completed successfully (Table: %s).", command, tableName)
	return nil
}

func closeInstance(instance *migrate.Migrate) {
	srcErr, dbErr := instance.Close()
	if srcErr != nil {
		logger.Warnf("Failed to close migration source: %v", srcErr)
	}
	if dbErr != nil {
		logger.Warnf("Failed to close migration database driver: %v", dbErr)
	}
}

func (m *sqlMigrator) Up(ctx context.Context, migrationFS fs.FS, dir string, tableName string) error {
	return m.run(ctx, migrationFS, dir, tableName, "up")
}

func (m *sqlMigrator) Down(ctx context.Context, migrationFS fs.FS, dir string, tableName string) error {
	return m.run(ctx, migrationFS, dir, tableName, "down")
}

func (m *sqlMigrator) Version(ctx context.Context, migrationFS fs.FS, dir string, tableName string) (uint, bool, bool, error) {
	instance, err := m.open(migrationFS, dir, tableName)
	if err != nil {
		return 0, false, false, err
	}
	defer closeInstance(instance)

	version, dirty, err := instance.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, true, nil
}

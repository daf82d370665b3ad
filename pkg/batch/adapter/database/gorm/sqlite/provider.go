// Package sqlite provides a GORM DBProvider implementation for SQLite databases.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/sheetload/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/sheetload/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/sheetload/pkg/batch/core/config"
)

// init registers the SQLite dialector factory with the GORM adapter.
func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// SQLiteDBProvider implements database.DBProvider for SQLite connections.
type SQLiteDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString returns the file path (or file: URI) of the database.
// Foreign keys are switched on for plain file paths.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	if c.Database == ":memory:" || len(c.Database) > 5 && c.Database[:5] == "file:" {
		return c.Database
	}
	return c.Database + "?_foreign_keys=on"
}

// NewProvider creates a new database.DBProvider for SQLite.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &SQLiteDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, "sqlite")}
}

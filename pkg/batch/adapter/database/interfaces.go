// Package database defines the database connection interfaces used by the
// record store and the run recorder. Concrete adapters live in sub-packages.
package database

import (
	"context"
	"database/sql"

	dbconfig "github.com/tigerroll/sheetload/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/sheetload/pkg/batch/core/adapter"
	"github.com/tigerroll/sheetload/pkg/batch/core/tx"
)

// DBExecutor defines the operations a connection supports outside a transaction.
type DBExecutor interface {
	tx.TxExecutor

	// SelectColumns reads the given columns of every row of tableName into target.
	SelectColumns(ctx context.Context, tableName string, columns []string, target *[]map[string]interface{}) error
}

// DBConnection is a named database connection.
type DBConnection interface {
	coreAdapter.ResourceConnection
	DBExecutor

	// RefreshConnection pings the pool to check the connection is still valid.
	RefreshConnection(ctx context.Context) error
	// Config returns the settings the connection was opened with.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB, e.g. for migrations.
	GetSQLDB() (*sql.DB, error)
}

// DBConnectionResolver returns connections by configured name.
type DBConnectionResolver interface {
	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProvider opens connections for one database type.
type DBProvider interface {
	coreAdapter.ResourceProvider

	// GetConnection returns the named connection, opening it on first use.
	GetConnection(name string) (DBConnection, error)
	// ForceReconnect closes and reopens the named connection.
	ForceReconnect(name string) (DBConnection, error)
}

// DBProviderGroup is the fx group DBProviders are collected in.
const DBProviderGroup = "db_providers"

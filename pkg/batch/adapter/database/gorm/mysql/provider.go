// Package mysql provides a GORM DBProvider implementation for MySQL databases.
package mysql

import (
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/sheetload/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/sheetload/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/sheetload/pkg/batch/core/config"
)

// init registers the MySQL dialector factory with the GORM adapter.
func init() {
	gormadapter.RegisterDialector("mysql", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// MySQLDBProvider implements database.DBProvider for MySQL connections.
type MySQLDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString builds the DSN with go-sql-driver's Config so that
// credentials are escaped. DATE and DATETIME columns are scanned into time.Time.
// Multi-statement scripts are allowed for migrations. Affected rows count
// matched rows, as on SQLite and PostgreSQL, so an unchanged row still counts.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	dsn := gomysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	dsn.DBName = c.Database
	dsn.ParseTime = true
	dsn.MultiStatements = true
	dsn.ClientFoundRows = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// NewProvider creates a new database.DBProvider for MySQL.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &MySQLDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, "mysql")}
}

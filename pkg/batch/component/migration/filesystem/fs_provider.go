// Package filesystem embeds the migrations of the tables sheetload owns.
// Each dialect has its own directory: sqlite, postgres and mysql.
package filesystem

import (
	"embed"
	"io/fs"

	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

//go:embed resource
var rawFrameworkMigrationFS embed.FS

// ProvideFrameworkMigrationsFS returns the embedded migrations rooted at the dialect directories.
func ProvideFrameworkMigrationsFS() fs.FS {
	subFS, err := fs.Sub(rawFrameworkMigrationFS, "resource")
	if err != nil {
		logger.Fatalf("Failed to create subdirectory for framework migration FS: %v", err)
	}
	return subFS
}

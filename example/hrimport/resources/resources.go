// Package resources embeds the configuration and database migrations of hrimport.
package resources

import (
	"embed"
	"io/fs"

	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
)

// applicationYAML is loaded over the sheetload defaults at startup.
//
//go:embed application.yaml
var applicationYAML []byte

//go:embed all:migrations
var migrationsFS embed.FS

// Config returns the embedded application.yaml.
func Config() config.EmbeddedConfig {
	return config.EmbeddedConfig(applicationYAML)
}

// Migrations returns the application migrations with one directory per database type.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The embed path is fixed at compile time.
		panic(err)
	}
	return sub
}

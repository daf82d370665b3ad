package config

import (
	"fmt"

	coreConfig "github.com/tigerroll/sheetload/pkg/batch/core/config"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/configbinder"
)

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type"`             // "local" or "gcs".
	BucketName      string `yaml:"bucket_name"`      // Default bucket name for operations.
	CredentialsFile string `yaml:"credentials_file"` // Service account key for GCS. Empty uses application default credentials.
	BaseDir         string `yaml:"base_dir"`         // Root directory for local file system operations.
}

// StorageConfigFor decodes the entry configured under sheetload.storage.<name>.
func StorageConfigFor(cfg *coreConfig.Config, name string) (StorageConfig, error) {
	var storageCfg StorageConfig
	raw, ok := cfg.Sheetload.Storage[name]
	if !ok {
		return storageCfg, fmt.Errorf("storage configuration '%s' not found under sheetload.storage", name)
	}
	if err := configbinder.BindValue(raw, &storageCfg); err != nil {
		return storageCfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	return storageCfg, nil
}

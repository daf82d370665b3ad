// Package config provides the configuration structures of sheetload and
// the loader that builds them from embedded YAML, .env files and the environment.
package config

import (
	"fmt"
	"sort"

	"github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/configbinder"
)

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSilent LogLevel = "SILENT"
)

// ImportConfig holds engine-wide defaults applied to every entity profile.
type ImportConfig struct {
	// ChunkSize is the number of records per bulk write.
	ChunkSize int `yaml:"chunk_size"`
	// IDColumn is the storage identifier column.
	IDColumn string `yaml:"id_column"`
	// ServerAssigned lists columns stripped from every payload.
	ServerAssigned []string `yaml:"server_assigned"`
	// DBRef is the database connection the record store writes to.
	DBRef string `yaml:"db_ref"`
	// RecordRuns enables the import_runs audit table.
	RecordRuns bool `yaml:"record_runs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// MetricsConfig selects the metrics and tracing backends.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Backend is "prometheus" or "otel".
	Backend string `yaml:"backend"`
	// ListenAddress serves /metrics when the Prometheus backend is used.
	ListenAddress string `yaml:"listen_address"`
	// AsyncBufferSize queues metric events for a background worker. 0 records synchronously.
	AsyncBufferSize int           `yaml:"async_buffer_size"`
	Tracing         TracingConfig `yaml:"tracing"`
	OTLP            OTLPConfig    `yaml:"otlp"`
}

// TracingConfig enables OpenTelemetry spans.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// OTLPConfig describes the collector OTel exporters push to.
type OTLPConfig struct {
	Endpoint string `yaml:"endpoint"`
	// Protocol is "grpc" or "http".
	Protocol        string `yaml:"protocol"`
	Insecure        bool   `yaml:"insecure"`
	ServiceName     string `yaml:"service_name"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// ExportConfig configures the Parquet export of report errors.
type ExportConfig struct {
	Enabled    bool   `yaml:"enabled"`
	StorageRef string `yaml:"storage_ref"`
	Bucket     string `yaml:"bucket"`
	BaseDir    string `yaml:"base_dir"`
	// Compression is SNAPPY, GZIP or NONE.
	Compression string `yaml:"compression"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// MaskedKeys are configuration keys whose values are masked in logs.
	MaskedKeys []string `yaml:"masked_keys"`
}

// SheetloadConfig holds everything under the "sheetload" top-level key.
type SheetloadConfig struct {
	Import   ImportConfig   `yaml:"import"`
	System   SystemConfig   `yaml:"system"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Export   ExportConfig   `yaml:"export"`
	Security SecurityConfig `yaml:"security"`
	// Database holds named database connection settings (see adapter/database/config).
	Database map[string]interface{} `yaml:"database"`
	// Storage holds named storage connection settings (see adapter/storage/config).
	Storage map[string]interface{} `yaml:"storage"`
	// Entities holds entity profiles keyed by entity name.
	Entities map[string]interface{} `yaml:"entities"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Sheetload      SheetloadConfig `yaml:"sheetload"`
	EmbeddedConfig EmbeddedConfig  `yaml:"-"`
}

// GlobalConfig is the configuration set by NewConfigProvider.
var GlobalConfig *Config

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Sheetload: SheetloadConfig{
			Import: ImportConfig{
				ChunkSize:      model.DefaultChunkSize,
				IDColumn:       model.DefaultIDColumn,
				ServerAssigned: []string{"id", "created_at"},
				DBRef:          "app",
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Metrics: MetricsConfig{
				Backend:       "prometheus",
				ListenAddress: ":9090",
				Tracing:       TracingConfig{SampleRatio: 1.0},
				OTLP: OTLPConfig{
					Protocol:        "grpc",
					ServiceName:     "sheetload",
					IntervalSeconds: 15,
				},
			},
			Export: ExportConfig{
				BaseDir:     "import-errors",
				Compression: "SNAPPY",
			},
			Security: SecurityConfig{
				MaskedKeys: []string{"password", "credentials_file", "api_key", "secret"},
			},
			Database: map[string]interface{}{},
			Storage:  map[string]interface{}{},
			Entities: map[string]interface{}{},
		},
	}
}

// GetMaskedKeys returns the keys masked in logs by the global configuration.
func GetMaskedKeys() []string {
	if GlobalConfig == nil {
		return []string{}
	}
	return GlobalConfig.Sheetload.Security.MaskedKeys
}

// EntityNames returns the configured entity names in sorted order.
func (c *Config) EntityNames() []string {
	names := make([]string, 0, len(c.Sheetload.Entities))
	for name := range c.Sheetload.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityProfile binds the profile configured under sheetload.entities.<name>
// and applies the import defaults to it.
func (c *Config) EntityProfile(name string) (model.EntityProfile, error) {
	raw, ok := c.Sheetload.Entities[name]
	if !ok {
		return model.EntityProfile{}, fmt.Errorf("entity '%s' is not configured", name)
	}

	var p model.EntityProfile
	if err := configbinder.BindValue(raw, &p); err != nil {
		return model.EntityProfile{}, fmt.Errorf("entity '%s': %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	if p.IDColumn == "" {
		p.IDColumn = c.Sheetload.Import.IDColumn
	}
	if p.ChunkSize == 0 {
		p.ChunkSize = c.Sheetload.Import.ChunkSize
	}
	p.ServerAssigned = append(append([]string{}, c.Sheetload.Import.ServerAssigned...), p.ServerAssigned...)
	return p.WithDefaults(), nil
}

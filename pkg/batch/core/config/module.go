package config

import "go.uber.org/fx"

// NewImportConfigProvider exposes the import section on its own.
func NewImportConfigProvider(cfg *Config) *ImportConfig {
	return &cfg.Sheetload.Import
}

// NewMetricsConfigProvider exposes the metrics section on its own.
func NewMetricsConfigProvider(cfg *Config) *MetricsConfig {
	return &cfg.Sheetload.Metrics
}

// Module provides *Config and its sections. The application must supply
// EmbeddedConfig and may supply an `envFilePath` named string.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			func() *OsEnvironmentExpander { return NewOsEnvironmentExpander() },
			fx.As(new(EnvironmentExpander)),
		),
	),
	fx.Provide(NewConfigProvider),
	fx.Provide(NewImportConfigProvider),
	fx.Provide(NewMetricsConfigProvider),
)

package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

const moduleName = "config"

// EnvPrefix prefixes every environment override, e.g. SHEETLOAD_IMPORT_CHUNK_SIZE.
const EnvPrefix = "SHEETLOAD_"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string              `name:"envFilePath" optional:"true"`
	Expander       EnvironmentExpander `optional:"true"`
}

// loadConfig layers defaults, embedded YAML and environment variables, in that order.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}
	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to expand environment placeholders", err, false, false)
	}

	cfg := NewConfig()

	var yamlConfig Config
	if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err, false, false)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false, false)
	}
	cfg.EmbeddedConfig = embeddedConfig

	if err := validateConfig(cfg); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid configuration", err, false, false)
	}
	return cfg, nil
}

// LoadConfig loads configuration from the embedded YAML, an optional .env file and the environment.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig, nil)
}

// NewConfigProvider is an Fx provider that loads *Config, publishes it as
// GlobalConfig and applies the configured log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig, params.Expander)
	if err != nil {
		return nil, err
	}

	GlobalConfig = cfg
	logger.SetLogLevel(cfg.Sheetload.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Sheetload.System.Logging.Level)
	return cfg, nil
}

// validateConfig reports every invalid setting at once.
func validateConfig(cfg *Config) error {
	var result *multierror.Error
	s := cfg.Sheetload

	if s.Import.ChunkSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("import.chunk_size must be positive, got %d", s.Import.ChunkSize))
	}
	if _, err := logger.ParseLogLevel(s.System.Logging.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("system.logging.level: %w", err))
	}
	if s.Metrics.Enabled {
		switch s.Metrics.Backend {
		case "prometheus", "otel":
		default:
			result = multierror.Append(result, fmt.Errorf("metrics.backend must be 'prometheus' or 'otel', got '%s'", s.Metrics.Backend))
		}
	}
	if s.Metrics.Tracing.Enabled || (s.Metrics.Enabled && s.Metrics.Backend == "otel") {
		switch s.Metrics.OTLP.Protocol {
		case "grpc", "http":
		default:
			result = multierror.Append(result, fmt.Errorf("metrics.otlp.protocol must be 'grpc' or 'http', got '%s'", s.Metrics.OTLP.Protocol))
		}
	}
	if s.Export.Enabled {
		if _, ok := s.Storage[s.Export.StorageRef]; !ok {
			result = multierror.Append(result, fmt.Errorf("export.storage_ref '%s' does not name a storage entry", s.Export.StorageRef))
		}
	}
	for _, name := range cfg.EntityNames() {
		p, err := cfg.EntityProfile(name)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if err := p.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// mergeConfig copies every non-zero value of source into dest.
func mergeConfig(dest, source *Config) {
	d, s := &dest.Sheetload, &source.Sheetload

	if s.Import.ChunkSize != 0 {
		d.Import.ChunkSize = s.Import.ChunkSize
	}
	if s.Import.IDColumn != "" {
		d.Import.IDColumn = s.Import.IDColumn
	}
	if s.Import.ServerAssigned != nil {
		d.Import.ServerAssigned = s.Import.ServerAssigned
	}
	if s.Import.DBRef != "" {
		d.Import.DBRef = s.Import.DBRef
	}
	d.Import.RecordRuns = d.Import.RecordRuns || s.Import.RecordRuns

	if s.System.Timezone != "" {
		d.System.Timezone = s.System.Timezone
	}
	if s.System.Logging.Level != "" {
		d.System.Logging.Level = s.System.Logging.Level
	}

	mergeMetricsConfig(&d.Metrics, &s.Metrics)

	d.Export.Enabled = d.Export.Enabled || s.Export.Enabled
	if s.Export.StorageRef != "" {
		d.Export.StorageRef = s.Export.StorageRef
	}
	if s.Export.Bucket != "" {
		d.Export.Bucket = s.Export.Bucket
	}
	if s.Export.BaseDir != "" {
		d.Export.BaseDir = s.Export.BaseDir
	}
	if s.Export.Compression != "" {
		d.Export.Compression = s.Export.Compression
	}

	if s.Security.MaskedKeys != nil {
		d.Security.MaskedKeys = s.Security.MaskedKeys
	}

	mergeMap(&d.Database, s.Database)
	mergeMap(&d.Storage, s.Storage)
	mergeMap(&d.Entities, s.Entities)
}

func mergeMetricsConfig(dest, source *MetricsConfig) {
	dest.Enabled = dest.Enabled || source.Enabled
	if source.Backend != "" {
		dest.Backend = source.Backend
	}
	if source.ListenAddress != "" {
		dest.ListenAddress = source.ListenAddress
	}
	if source.AsyncBufferSize != 0 {
		dest.AsyncBufferSize = source.AsyncBufferSize
	}
	dest.Tracing.Enabled = dest.Tracing.Enabled || source.Tracing.Enabled
	if source.Tracing.SampleRatio != 0 {
		dest.Tracing.SampleRatio = source.Tracing.SampleRatio
	}
	if source.OTLP.Endpoint != "" {
		dest.OTLP.Endpoint = source.OTLP.Endpoint
	}
	if source.OTLP.Protocol != "" {
		dest.OTLP.Protocol = source.OTLP.Protocol
	}
	dest.OTLP.Insecure = dest.OTLP.Insecure || source.OTLP.Insecure
	if source.OTLP.ServiceName != "" {
		dest.OTLP.ServiceName = source.OTLP.ServiceName
	}
	if source.OTLP.IntervalSeconds != 0 {
		dest.OTLP.IntervalSeconds = source.OTLP.IntervalSeconds
	}
}

func mergeMap(dest *map[string]interface{}, source map[string]interface{}) {
	if source == nil {
		return
	}
	if *dest == nil {
		*dest = make(map[string]interface{}, len(source))
	}
	for k, v := range source {
		(*dest)[k] = v
	}
}

// loadStructFromEnv overrides struct fields from environment variables named
// after the upper-cased yaml tag path, e.g. SHEETLOAD_METRICS_OTLP_ENDPOINT.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch {
		case field.Kind() == reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
		case field.Kind() == reflect.Map && field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.Interface:
			loadMapFromEnv(field, envVarName+"_")
		default:
			envValue, exists := os.LookupEnv(envVarName)
			if !exists {
				continue
			}
			if err := setField(field, envValue); err != nil {
				return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
			}
		}
	}
	return nil
}

// loadMapFromEnv overrides attributes of existing named entries of a
// map[string]interface{} section. SHEETLOAD_DATABASE_APP_PASSWORD=x sets
// database.app.password. Entries are never created from the environment.
func loadMapFromEnv(mapField reflect.Value, prefix string) {
	if mapField.IsNil() {
		return
	}
	for _, key := range mapField.MapKeys() {
		entryPrefix := prefix + strings.ToUpper(key.String()) + "_"
		entry, ok := mapField.MapIndex(key).Interface().(map[string]interface{})
		if !ok {
			continue
		}
		for _, env := range os.Environ() {
			if !strings.HasPrefix(env, entryPrefix) {
				continue
			}
			parts := strings.SplitN(strings.TrimPrefix(env, entryPrefix), "=", 2)
			if len(parts) != 2 || parts[0] == "" {
				continue
			}
			entry[strings.ToLower(parts[0])] = parts[1]
		}
	}
}

// setField sets a scalar field from its string form.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		items := strings.Split(value, ",")
		for i := range items {
			items[i] = strings.TrimSpace(items[i])
		}
		field.Set(reflect.ValueOf(items))
	}
	return nil
}

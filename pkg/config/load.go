package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path,
// applies defaults and validates the result. Environment variables are not
// consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// ATLAS_SECTION_FIELD (e.g. ATLAS_STORAGE_BACKEND) and always take precedence
// over file values.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies ATLAS_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setInt := func(key string, dst *int) {
		if val := os.Getenv(key); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
			}
		}
	}
	setInt64 := func(key string, dst *int64) {
		if val := os.Getenv(key); val != "" {
			if i, err := strconv.ParseInt(val, 10, 64); err == nil {
				*dst = i
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				*dst = b
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
			}
		}
	}

	setString("ATLAS_STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("ATLAS_STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	setDuration("ATLAS_STORAGE_SQLITE_BUSY_TIMEOUT", &cfg.Storage.SQLite.BusyTimeout)

	setBool("ATLAS_USAGE_ENABLED", &cfg.Usage.Enabled)
	setString("ATLAS_USAGE_PATH", &cfg.Usage.Path)

	setString("ATLAS_PROVIDER_BASE_URL", &cfg.Provider.BaseURL)
	setString("ATLAS_PROVIDER_API_KEY", &cfg.Provider.APIKey)
	setInt("ATLAS_PROVIDER_MAX_QUERIES", &cfg.Provider.MaxQueries)
	setDuration("ATLAS_PROVIDER_TIMEOUT", &cfg.Provider.Timeout)

	setInt("ATLAS_RETENTION_DAYS", &cfg.Retention.Days)
	setInt64("ATLAS_RETENTION_MAX_RECORDS", &cfg.Retention.MaxRecords)
	setString("ATLAS_RETENTION_SCHEDULE", &cfg.Retention.Schedule)

	setString("ATLAS_EXPORT_DEFAULT_FORMAT", &cfg.Export.DefaultFormat)
	setBool("ATLAS_EXPORT_PRETTY_JSON", &cfg.Export.PrettyJSON)
	setBool("ATLAS_EXPORT_CSV_HEADER", &cfg.Export.CSVHeader)
	setInt("ATLAS_EXPORT_MAX_BULK_RECORDS", &cfg.Export.MaxBulkRecords)

	setBool("ATLAS_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setString("ATLAS_METRICS_LISTEN_ADDRESS", &cfg.Metrics.ListenAddress)
	setString("ATLAS_METRICS_PATH", &cfg.Metrics.Path)

	setString("ATLAS_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("ATLAS_LOGGING_FORMAT", &cfg.Logging.Format)
}

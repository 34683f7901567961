package config

import "time"

// Default values applied to any field left unset in the YAML file.
const (
	DefaultStorageBackend = "sqlite"
	DefaultSQLitePath     = "data/searches.db"
	DefaultBusyTimeout    = 5 * time.Second

	DefaultUsagePath = "data/usage.db"

	DefaultProviderBaseURL = "https://api.rentcast.io/v1"
	DefaultMaxQueries      = 30
	DefaultProviderTimeout = 15 * time.Second

	DefaultPruneSchedule = "0 3 * * *"

	DefaultExportFormat   = "json"
	DefaultMaxBulkRecords = 500

	DefaultMetricsAddress = ":9090"
	DefaultMetricsPath    = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills in default values for any unset configuration fields.
// Boolean fields default to the zero value and are not touched here; the
// DefaultConfig constructor sets the preferred starting values.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}

	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Provider.MaxQueries == 0 {
		cfg.Provider.MaxQueries = DefaultMaxQueries
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}

	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultPruneSchedule
	}

	if cfg.Export.DefaultFormat == "" {
		cfg.Export.DefaultFormat = DefaultExportFormat
	}
	if cfg.Export.MaxBulkRecords == 0 {
		cfg.Export.MaxBulkRecords = DefaultMaxBulkRecords
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// DefaultConfig returns a configuration populated entirely with defaults,
// including the preferred boolean values a fresh install should have.
func DefaultConfig() *Config {
	cfg := &Config{
		Usage: UsageConfig{Enabled: true},
		Export: ExportConfig{
			CSVHeader: true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

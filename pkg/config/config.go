package config

import "time"

// Config is the root configuration structure for atlas.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Usage     UsageConfig     `yaml:"usage"`
	Provider  ProviderConfig  `yaml:"provider"`
	Retention RetentionConfig `yaml:"retention"`
	Export    ExportConfig    `yaml:"export"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig configures the search record store.
type StorageConfig struct {
	// Backend selects the store implementation: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLite holds SQLite-specific settings, used when Backend is "sqlite".
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite store settings.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long a connection waits on a locked database.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// UsageConfig configures the export-usage event log.
type UsageConfig struct {
	// Enabled controls whether export events are recorded at all.
	Enabled bool `yaml:"enabled"`

	// Path is the usage log database file path.
	Path string `yaml:"path"`
}

// ProviderConfig configures the upstream property data API client.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	// MaxQueries caps upstream calls per process lifetime. 0 disables
	// the cap.
	MaxQueries int `yaml:"max_queries"`

	Timeout time.Duration `yaml:"timeout"`
}

// RetentionConfig configures age-based pruning of search history.
type RetentionConfig struct {
	// Days is the number of days to retain search executions.
	// 0 keeps history forever.
	Days int `yaml:"days"`

	// MaxRecords caps the total number of retained search executions.
	// 0 disables the cap.
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a cron expression for the pruning job.
	Schedule string `yaml:"schedule"`
}

// ExportConfig configures export defaults.
type ExportConfig struct {
	// DefaultFormat is used when a command does not name a format.
	DefaultFormat string `yaml:"default_format"`

	// PrettyJSON enables indented JSON output.
	PrettyJSON bool `yaml:"pretty_json"`

	// CSVHeader controls whether CSV output starts with a header row.
	CSVHeader bool `yaml:"csv_header"`

	// MaxBulkRecords caps the number of records in one bulk export.
	MaxBulkRecords int `yaml:"max_bulk_records"`
}

// MetricsConfig configures the Prometheus metrics endpoint exposed by
// long-running commands.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
	Path          string `yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfigFile writes YAML content to a temp file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atlas.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestLoadConfig tests loading a YAML file with partial settings.
func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  backend: sqlite
  sqlite:
    path: /var/lib/atlas/searches.db
provider:
  api_key: file-key
  max_queries: 10
retention:
  days: 90
export:
  default_format: csv
logging:
  level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Storage.SQLite.Path != "/var/lib/atlas/searches.db" {
		t.Errorf("Unexpected sqlite path %q", cfg.Storage.SQLite.Path)
	}
	if cfg.Provider.APIKey != "file-key" || cfg.Provider.MaxQueries != 10 {
		t.Errorf("Unexpected provider config %+v", cfg.Provider)
	}
	if cfg.Retention.Days != 90 {
		t.Errorf("Expected 90 retention days, got %d", cfg.Retention.Days)
	}
	if cfg.Export.DefaultFormat != "csv" {
		t.Errorf("Expected csv default format, got %q", cfg.Export.DefaultFormat)
	}

	// Unset fields pick up defaults.
	if cfg.Provider.BaseURL != DefaultProviderBaseURL {
		t.Errorf("Expected default base URL, got %q", cfg.Provider.BaseURL)
	}
	if cfg.Retention.Schedule != DefaultPruneSchedule {
		t.Errorf("Expected default prune schedule, got %q", cfg.Retention.Schedule)
	}
	if cfg.Export.MaxBulkRecords != DefaultMaxBulkRecords {
		t.Errorf("Expected default bulk cap, got %d", cfg.Export.MaxBulkRecords)
	}
}

// TestLoadConfig_MissingFile tests the error path.
func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

// TestLoadConfig_InvalidYAML tests the parse error path.
func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "storage: [not: a: mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected a parse error")
	}
}

// TestLoadConfigWithEnvOverrides tests that ATLAS_* variables win over the file.
func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  backend: sqlite
provider:
  api_key: file-key
  max_queries: 10
`)

	t.Setenv("ATLAS_STORAGE_BACKEND", "memory")
	t.Setenv("ATLAS_PROVIDER_API_KEY", "env-key")
	t.Setenv("ATLAS_PROVIDER_MAX_QUERIES", "99")
	t.Setenv("ATLAS_PROVIDER_TIMEOUT", "30s")
	t.Setenv("ATLAS_USAGE_ENABLED", "true")
	t.Setenv("ATLAS_USAGE_PATH", "/tmp/usage.db")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}

	if cfg.Storage.Backend != "memory" {
		t.Errorf("Expected memory backend from env, got %q", cfg.Storage.Backend)
	}
	if cfg.Provider.APIKey != "env-key" || cfg.Provider.MaxQueries != 99 {
		t.Errorf("Unexpected provider config %+v", cfg.Provider)
	}
	if cfg.Provider.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Provider.Timeout)
	}
	if !cfg.Usage.Enabled || cfg.Usage.Path != "/tmp/usage.db" {
		t.Errorf("Unexpected usage config %+v", cfg.Usage)
	}
}

// TestLoadConfigWithEnvOverrides_InvalidOverride tests that an override can
// still fail validation.
func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfigFile(t, "storage:\n  backend: memory\n")

	t.Setenv("ATLAS_STORAGE_BACKEND", "postgres")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("Expected validation to reject the overridden backend")
	}
}

// TestValidate tests the per-field rules.
func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{
			name:      "unknown backend",
			mutate:    func(cfg *Config) { cfg.Storage.Backend = "postgres" },
			wantField: "storage.backend",
		},
		{
			name: "sqlite without path",
			mutate: func(cfg *Config) {
				cfg.Storage.Backend = "sqlite"
				cfg.Storage.SQLite.Path = ""
			},
			wantField: "storage.sqlite.path",
		},
		{
			name: "usage enabled without path",
			mutate: func(cfg *Config) {
				cfg.Usage.Enabled = true
				cfg.Usage.Path = ""
			},
			wantField: "usage.path",
		},
		{
			name:      "negative retention",
			mutate:    func(cfg *Config) { cfg.Retention.Days = -1 },
			wantField: "retention.days",
		},
		{
			name:      "bad cron schedule",
			mutate:    func(cfg *Config) { cfg.Retention.Schedule = "every day at noon" },
			wantField: "retention.schedule",
		},
		{
			name:      "unknown export format",
			mutate:    func(cfg *Config) { cfg.Export.DefaultFormat = "yaml" },
			wantField: "export.default_format",
		},
		{
			name:      "zero bulk cap",
			mutate:    func(cfg *Config) { cfg.Export.MaxBulkRecords = 0 },
			wantField: "export.max_bulk_records",
		},
		{
			name: "metrics path without slash",
			mutate: func(cfg *Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Path = "metrics"
			},
			wantField: "metrics.path",
		},
		{
			name:      "bad log level",
			mutate:    func(cfg *Config) { cfg.Logging.Level = "verbose" },
			wantField: "logging.level",
		},
		{
			name:      "bad log format",
			mutate:    func(cfg *Config) { cfg.Logging.Format = "logfmt" },
			wantField: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Expected field %q in error, got %q", tt.wantField, err.Error())
			}
		})
	}
}

// TestValidate_CollectsAllErrors tests that one pass reports every problem.
func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "postgres"
	cfg.Export.DefaultFormat = "yaml"
	cfg.Logging.Level = "verbose"

	err := Validate(cfg)
	verrs, ok := err.(*ValidationErrors)
	if !ok {
		t.Fatalf("Expected ValidationErrors, got %T", err)
	}
	if len(verrs.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d: %v", len(verrs.Errors), verrs)
	}
}

// TestDefaultConfig tests that the fresh-install configuration validates.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("Default configuration must validate: %v", err)
	}
	if !cfg.Usage.Enabled {
		t.Error("Expected usage recording enabled by default")
	}
	if !cfg.Export.CSVHeader {
		t.Error("Expected CSV headers enabled by default")
	}
	if cfg.Export.MaxBulkRecords != DefaultMaxBulkRecords {
		t.Errorf("Unexpected bulk cap %d", cfg.Export.MaxBulkRecords)
	}
}

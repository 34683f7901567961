// Package config provides configuration loading, validation and hot-reload
// for atlas.
//
// Configuration is read from a YAML file, merged with defaults, overridden
// by ATLAS_* environment variables and then validated as a whole. A global
// singleton holds the active configuration for long-running commands, and a
// Watcher can reload it when the file changes on disk.
//
// Sections:
//
//   - storage: record store backend (sqlite or memory) and SQLite settings
//   - usage: the export-usage event log
//   - provider: the upstream property data API client
//   - retention: age-based pruning of search history
//   - export: export defaults (format, JSON indentation, bulk cap)
//   - metrics: the Prometheus endpoint exposed by long-running commands
//   - logging: structured log level and format
//
// Example:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("atlas.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
package config

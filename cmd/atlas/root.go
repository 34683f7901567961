package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"parcelhq/atlas/pkg/config"
	"parcelhq/atlas/pkg/search"
	"parcelhq/atlas/pkg/search/storage"
	"parcelhq/atlas/pkg/search/usage"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Atlas - property search persistence and export engine",
	Long: `Atlas records property search executions as immutable history and
exports them in multiple formats.

It provides:
  - Durable per-owner search history with filtering and pagination
  - Reusable saved search templates
  - Export to JSON, CSV, multi-sheet workbooks and PDF reports
  - Search activity and criteria-frequency statistics
  - Retention pruning by age and record count`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "atlas.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig initializes the global configuration. A missing file at the
// default path falls back to built-in defaults so the CLI works out of the
// box; an explicitly named file must exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		flag := rootCmd.PersistentFlags().Lookup("config")
		if flag != nil && !flag.Changed {
			cfg := config.DefaultConfig()
			config.SetConfig(cfg)
			initLogging(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config file %q not found", cfgFile)
	}

	if err := config.Initialize(cfgFile); err != nil {
		return nil, err
	}
	cfg := config.GetConfig()
	initLogging(cfg)
	return cfg, nil
}

// initLogging configures the default slog logger from the logging section.
// The --verbose flag forces debug level regardless of configuration.
func initLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore creates the record store selected by the configuration.
func openStore(cfg *config.Config) (search.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:        cfg.Storage.SQLite.Path,
			WALMode:     true,
			BusyTimeout: cfg.Storage.SQLite.BusyTimeout,
		})
	}
}

// openUsage creates the export-usage log. When usage recording is disabled
// events go to an in-memory log that vanishes with the process.
func openUsage(cfg *config.Config) (usage.Log, error) {
	if !cfg.Usage.Enabled {
		return usage.NewMemoryLog(), nil
	}
	return usage.NewSQLiteLog(cfg.Usage.Path)
}

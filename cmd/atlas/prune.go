package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"parcelhq/atlas/pkg/cli"
	"parcelhq/atlas/pkg/config"
	"parcelhq/atlas/pkg/search"
	"parcelhq/atlas/pkg/search/retention"
)

var pruneFlags struct {
	days       int
	maxRecords int64
	schedule   bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune search history past the retention period",
	Long: `Delete search records past the configured retention limits.

Records older than the retention period are deleted first, then the
oldest records beyond the record cap. Pruning applies to every owner's
history; saved templates are never pruned. By default the command runs
one pruning pass and exits. With
--schedule it stays running and prunes on the configured cron schedule,
exposing Prometheus metrics if enabled in the configuration.

Examples:
  # One-shot prune of records older than 90 days
  atlas prune --days 90

  # Long-running scheduled pruning
  atlas prune --schedule`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().IntVar(&pruneFlags.days, "days", 0, "retention period in days (default from config)")
	pruneCmd.Flags().Int64Var(&pruneFlags.maxRecords, "max-records", 0, "keep at most this many records (default from config)")
	pruneCmd.Flags().BoolVar(&pruneFlags.schedule, "schedule", false, "keep running and prune on the configured cron schedule")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	days := cfg.Retention.Days
	if cmd.Flags().Changed("days") {
		days = pruneFlags.days
	}
	maxRecords := cfg.Retention.MaxRecords
	if cmd.Flags().Changed("max-records") {
		maxRecords = pruneFlags.maxRecords
	}
	if days <= 0 && maxRecords <= 0 && !pruneFlags.schedule {
		return cli.NewConfigError("days", "retention is disabled; set --days, --max-records or the retention config")
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, &retention.Config{
		RetentionDays: days,
		MaxRecords:    maxRecords,
		PruneSchedule: cfg.Retention.Schedule,
	}, search.NewMetrics())

	if !pruneFlags.schedule {
		deleted, err := pruner.Prune(context.Background())
		if err != nil {
			return cli.NewCommandError("prune", err)
		}
		fmt.Printf("Pruned %d record(s)\n", deleted)
		return nil
	}

	return runScheduledPrune(cfg, pruner)
}

// runScheduledPrune blocks, pruning on the cron schedule until SIGINT or
// SIGTERM. Metrics and configuration hot-reload are wired here because this
// is the only long-running mode the binary has.
func runScheduledPrune(cfg *config.Config, pruner *retention.Pruner) error {
	ctx := cli.SetupSignalHandler()
	logger := slog.Default().With("component", "prune")

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		server := &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}

		go func() {
			logger.Info("metrics endpoint listening",
				"address", cfg.Metrics.ListenAddress,
				"path", cfg.Metrics.Path,
			)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	watcher, err := config.NewWatcher(cfgFile)
	if err == nil {
		go func() {
			err := watcher.Watch(ctx, func() error {
				return config.ReloadConfig(cfgFile)
			})
			if err != nil {
				logger.Error("configuration watcher failed", "error", err)
			}
		}()
		defer watcher.Stop()
	} else {
		logger.Warn("configuration watching unavailable", "error", err)
	}

	scheduler := retention.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("prune", err)
	}
	defer scheduler.Stop()

	logger.Info("scheduled pruning running", "schedule", cfg.Retention.Schedule)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

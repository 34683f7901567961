package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"parcelhq/atlas/pkg/search"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one validation pass.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d configuration errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Validate checks the configuration for invalid values. All problems are
// collected so a user can fix them in one edit.
func Validate(cfg *Config) error {
	var errs []*ValidationError

	add := func(field, message string) {
		errs = append(errs, &ValidationError{Field: field, Message: message})
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		if cfg.Storage.SQLite.Path == "" {
			add("storage.sqlite.path", "path is required for the sqlite backend")
		}
	case "memory":
	default:
		add("storage.backend", fmt.Sprintf("must be sqlite or memory, got %q", cfg.Storage.Backend))
	}
	if cfg.Storage.SQLite.BusyTimeout < 0 {
		add("storage.sqlite.busy_timeout", "must not be negative")
	}

	if cfg.Usage.Enabled && cfg.Usage.Path == "" {
		add("usage.path", "path is required when usage recording is enabled")
	}

	if cfg.Provider.MaxQueries < 0 {
		add("provider.max_queries", "must not be negative")
	}
	if cfg.Provider.Timeout < 0 {
		add("provider.timeout", "must not be negative")
	}

	if cfg.Retention.Days < 0 {
		add("retention.days", "must not be negative")
	}
	if cfg.Retention.MaxRecords < 0 {
		add("retention.max_records", "must not be negative")
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			add("retention.schedule", fmt.Sprintf("invalid cron expression: %v", err))
		}
	}

	if !search.Format(cfg.Export.DefaultFormat).Valid() {
		add("export.default_format",
			fmt.Sprintf("must be one of %v, got %q", search.Formats, cfg.Export.DefaultFormat))
	}
	if cfg.Export.MaxBulkRecords < 1 {
		add("export.max_bulk_records", "must be at least 1")
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			add("metrics.listen_address", "listen address is required when metrics are enabled")
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			add("metrics.path", "must start with /")
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", fmt.Sprintf("must be debug, info, warn or error, got %q", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		add("logging.format", fmt.Sprintf("must be json or text, got %q", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

package usage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"parcelhq/atlas/pkg/search"
)

const schema = `
CREATE TABLE IF NOT EXISTS export_events (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    format TEXT NOT NULL,
    at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_export_events_owner ON export_events(owner, format);
`

// SQLiteLog implements Log using SQLite via the pure-Go driver. The event
// log lives in a separate file from the record store.
type SQLiteLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteLog opens (and if needed initializes) an export-usage log at the
// given database path.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "open_usage_log", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, search.NewStorageError("sqlite", "create_usage_schema", err)
	}

	return &SQLiteLog{
		db:     db,
		logger: slog.Default().With("component", "search.usage.sqlite"),
	}, nil
}

// Record persists one export event.
func (l *SQLiteLog) Record(ctx context.Context, owner string, format search.Format, at time.Time) error {
	if !format.Valid() {
		return search.NewValidationError("format", "unknown export format "+string(format))
	}

	_, err := l.db.ExecContext(ctx,
		"INSERT INTO export_events (id, owner, format, at) VALUES (?, ?, ?, ?)",
		uuid.New().String(), owner, string(format), at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return search.NewStorageError("sqlite", "record_usage", err)
	}

	l.logger.Debug("export usage recorded", "owner", owner, "format", format)
	return nil
}

// CountByFormat returns the owner's export counts with every known format
// present, zero-valued when unused.
func (l *SQLiteLog) CountByFormat(ctx context.Context, owner string) (map[search.Format]int64, error) {
	counts := emptyCounts()

	rows, err := l.db.QueryContext(ctx,
		"SELECT format, COUNT(*) FROM export_events WHERE owner = ? GROUP BY format", owner)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "count_usage", err)
	}
	defer rows.Close()

	for rows.Next() {
		var format string
		var count int64
		if err := rows.Scan(&format, &count); err != nil {
			return nil, search.NewStorageError("sqlite", "scan", err)
		}
		counts[search.Format(format)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, search.NewStorageError("sqlite", "count_usage", err)
	}

	return counts, nil
}

// Close releases the underlying database handle.
func (l *SQLiteLog) Close() error {
	if err := l.db.Close(); err != nil {
		return search.NewStorageError("sqlite", "close_usage_log", err)
	}
	return nil
}

func emptyCounts() map[search.Format]int64 {
	counts := make(map[search.Format]int64, len(search.Formats))
	for _, format := range search.Formats {
		counts[format] = 0
	}
	return counts
}

package usage

import (
	"context"
	"time"

	"parcelhq/atlas/pkg/search"
)

// Event is one recorded export.
type Event struct {
	ID     string        `json:"id"`
	Owner  string        `json:"owner"`
	Format search.Format `json:"format"`
	At     time.Time     `json:"at"`
}

// Log stores export-usage events.
//
// Implementations must be safe for concurrent use. CountByFormat returns an
// entry for every known format, zero-valued when no usage has been
// recorded; an empty log is not an error.
type Log interface {
	// Record persists one export event. The write is durable before the
	// call returns.
	Record(ctx context.Context, owner string, format search.Format, at time.Time) error

	// CountByFormat returns the owner's export counts keyed by format.
	CountByFormat(ctx context.Context, owner string) (map[search.Format]int64, error)

	// Close releases any resources held by the log.
	Close() error
}

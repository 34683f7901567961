package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"parcelhq/atlas/pkg/search"
)

// MemoryLog implements Log in memory. Intended for tests.
type MemoryLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryLog creates a new in-memory usage log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Record appends one export event.
func (l *MemoryLog) Record(ctx context.Context, owner string, format search.Format, at time.Time) error {
	if !format.Valid() {
		return search.NewValidationError("format", "unknown export format "+string(format))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{
		ID:     uuid.New().String(),
		Owner:  owner,
		Format: format,
		At:     at.UTC(),
	})
	return nil
}

// CountByFormat returns the owner's export counts with every known format
// present, zero-valued when unused.
func (l *MemoryLog) CountByFormat(ctx context.Context, owner string) (map[search.Format]int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := emptyCounts()
	for _, event := range l.events {
		if event.Owner == owner {
			counts[event.Format]++
		}
	}
	return counts, nil
}

// Close discards the log's contents.
func (l *MemoryLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
	return nil
}

// Size returns the number of recorded events (for testing).
func (l *MemoryLog) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

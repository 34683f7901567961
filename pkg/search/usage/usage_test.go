package usage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"parcelhq/atlas/pkg/search"
)

// logUnderTest lets both implementations share the same test body.
func logImplementations(t *testing.T) map[string]Log {
	t.Helper()

	sqlite, err := NewSQLiteLog(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("NewSQLiteLog() failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	memory := NewMemoryLog()
	t.Cleanup(func() { memory.Close() })

	return map[string]Log{"sqlite": sqlite, "memory": memory}
}

// TestLog_CountByFormat tests per-owner counting across implementations.
func TestLog_CountByFormat(t *testing.T) {
	for name, log := range logImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			at := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

			events := []struct {
				owner  string
				format search.Format
			}{
				{"owner-1", search.FormatJSON},
				{"owner-1", search.FormatJSON},
				{"owner-1", search.FormatCSV},
				{"owner-2", search.FormatReport},
			}
			for _, e := range events {
				if err := log.Record(ctx, e.owner, e.format, at); err != nil {
					t.Fatalf("Record() failed: %v", err)
				}
			}

			counts, err := log.CountByFormat(ctx, "owner-1")
			if err != nil {
				t.Fatalf("CountByFormat() failed: %v", err)
			}
			if counts[search.FormatJSON] != 2 || counts[search.FormatCSV] != 1 {
				t.Errorf("Unexpected counts %v", counts)
			}
			// owner-2's report export does not leak in.
			if counts[search.FormatReport] != 0 {
				t.Errorf("Expected 0 report exports for owner-1, got %d", counts[search.FormatReport])
			}
		})
	}
}

// TestLog_EmptyHistory tests the zero-filled map for an unused owner.
func TestLog_EmptyHistory(t *testing.T) {
	for name, log := range logImplementations(t) {
		t.Run(name, func(t *testing.T) {
			counts, err := log.CountByFormat(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("CountByFormat() failed: %v", err)
			}
			if len(counts) != len(search.Formats) {
				t.Fatalf("Expected every format present, got %v", counts)
			}
			for _, format := range search.Formats {
				if counts[format] != 0 {
					t.Errorf("Expected 0 for %s, got %d", format, counts[format])
				}
			}
		})
	}
}

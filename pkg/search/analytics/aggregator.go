package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parcelhq/atlas/pkg/search"
	"parcelhq/atlas/pkg/search/usage"
)

// Bucket is the time-bucket granularity for activity aggregation.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// Valid reports whether b names a known bucket granularity.
func (b Bucket) Valid() bool {
	return b == BucketDay || b == BucketWeek || b == BucketMonth
}

// ActivityPoint is one non-empty time bucket: the bucket's UTC start and the
// number of searches executed within it.
type ActivityPoint struct {
	Start time.Time `json:"start"`
	Count int64     `json:"count"`
}

// CriteriaCount ranks one distinct criteria signature.
type CriteriaCount struct {
	Criteria  map[string]any `json:"criteria"`
	Signature string         `json:"signature"`
	Count     int64          `json:"count"`
	LastUsed  time.Time      `json:"last_used"`
}

// Aggregator computes statistics over an owner's record store contents and
// export-usage events. All operations are read-only.
type Aggregator struct {
	store search.Store
	usage usage.Log
}

// New creates a new Aggregator over the given store and usage log.
func New(store search.Store, usageLog usage.Log) *Aggregator {
	return &Aggregator{store: store, usage: usageLog}
}

// ActivityOverTime counts the owner's searches grouped by time bucket.
// Buckets with zero activity are omitted; the result is sorted by bucket
// start ascending.
func (a *Aggregator) ActivityOverTime(ctx context.Context, owner string, bucket Bucket) ([]ActivityPoint, error) {
	if !bucket.Valid() {
		return nil, search.NewValidationError("bucket",
			fmt.Sprintf("bucket must be day, week or month, got %q", bucket))
	}

	records, err := a.store.ListSearches(ctx, owner, nil)
	if err != nil {
		return nil, err
	}

	counts := make(map[time.Time]int64)
	for _, record := range records {
		counts[bucketStart(record.CreatedAt, bucket)]++
	}

	points := make([]ActivityPoint, 0, len(counts))
	for start, count := range counts {
		points = append(points, ActivityPoint{Start: start, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Start.Before(points[j].Start) })

	return points, nil
}

// MostFrequentCriteria ranks the owner's distinct criteria signatures by
// occurrence count descending, ties broken by most-recent occurrence first
// and then signature for a total order. topN must be >= 1.
func (a *Aggregator) MostFrequentCriteria(ctx context.Context, owner string, topN int) ([]CriteriaCount, error) {
	if topN < 1 {
		return nil, search.NewValidationError("topN",
			fmt.Sprintf("topN must be >= 1, got %d", topN))
	}

	records, err := a.store.ListSearches(ctx, owner, nil)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*CriteriaCount)
	// Records arrive newest first, so the first occurrence of a signature
	// carries its most recent use.
	for _, record := range records {
		sig := Signature(record.Criteria)
		entry, ok := grouped[sig]
		if !ok {
			entry = &CriteriaCount{
				Criteria:  record.Criteria,
				Signature: sig,
				LastUsed:  record.CreatedAt,
			}
			grouped[sig] = entry
		}
		entry.Count++
	}

	ranked := make([]CriteriaCount, 0, len(grouped))
	for _, entry := range grouped {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if !ranked[i].LastUsed.Equal(ranked[j].LastUsed) {
			return ranked[i].LastUsed.After(ranked[j].LastUsed)
		}
		return ranked[i].Signature < ranked[j].Signature
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// FormatUsage returns the owner's export counts per format. When no usage
// has been recorded every known format maps to zero; an empty history is
// not an error.
func (a *Aggregator) FormatUsage(ctx context.Context, owner string) (map[search.Format]int64, error) {
	return a.usage.CountByFormat(ctx, owner)
}

// bucketStart truncates a timestamp to its UTC bucket start: midnight for
// day, the preceding Monday midnight for week, the first of the month for
// month.
func bucketStart(t time.Time, bucket Bucket) time.Time {
	t = t.UTC()
	switch bucket {
	case BucketWeek:
		day := t.Truncate(24 * time.Hour)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

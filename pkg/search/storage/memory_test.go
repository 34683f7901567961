package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"parcelhq/atlas/pkg/search"
)

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func timePtr(t time.Time) *time.Time { return &t }

// sampleHits returns a small result set used across storage tests.
func sampleHits() []search.PropertyHit {
	return []search.PropertyHit{
		{
			Address:       "123 Oak St, Fort Worth, TX",
			Beds:          intPtr(3),
			Baths:         floatPtr(2.5),
			SquareFootage: intPtr(1850),
			Price:         floatPtr(315000),
			TaxAssessments: []search.YearAmount{
				{Year: 2022, Amount: 280000},
				{Year: 2023, Amount: 295000},
			},
			PropertyTaxes: []search.YearAmount{
				{Year: 2023, Amount: 6200},
			},
			RawExtra: map[string]any{"propertyType": "Single Family"},
		},
		{
			Address:        "9 Elm Ave, Dallas, TX",
			TaxAssessments: []search.YearAmount{},
			PropertyTaxes:  []search.YearAmount{},
		},
	}
}

// TestMemoryStore_RecordAndGet tests recording and retrieving a search.
func TestMemoryStore_RecordAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	criteria := map[string]any{"city": "Fort Worth", "state": "TX"}
	record, err := store.RecordSearch(ctx, "owner-1", criteria, sampleHits())
	if err != nil {
		t.Fatalf("RecordSearch() failed: %v", err)
	}

	if record.ID == "" {
		t.Error("Expected a generated ID")
	}
	if record.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	got, err := store.GetSearch(ctx, "owner-1", record.ID)
	if err != nil {
		t.Fatalf("GetSearch() failed: %v", err)
	}

	if got.Owner != "owner-1" {
		t.Errorf("Expected owner 'owner-1', got %q", got.Owner)
	}
	if len(got.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(got.Results))
	}
	if got.Results[0].Beds == nil || *got.Results[0].Beds != 3 {
		t.Error("Expected beds pointer to round-trip")
	}
	if got.Results[1].Beds != nil {
		t.Error("Expected unknown beds to stay nil")
	}
	if got.Results[1].TaxAssessments == nil {
		t.Error("Expected empty history to stay non-nil")
	}
}

// TestMemoryStore_RecordValidation tests input validation.
func TestMemoryStore_RecordValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var validationErr *search.ValidationError

	_, err := store.RecordSearch(ctx, "owner-1", map[string]any{}, nil)
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for empty criteria, got %v", err)
	}

	_, err = store.RecordSearch(ctx, "", map[string]any{"city": "X"}, nil)
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for empty owner, got %v", err)
	}
}

// TestMemoryStore_EmptyResults tests that zero-match searches persist.
func TestMemoryStore_EmptyResults(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record, err := store.RecordSearch(ctx, "owner-1", map[string]any{"city": "Nowhere"}, nil)
	if err != nil {
		t.Fatalf("RecordSearch() failed: %v", err)
	}

	got, err := store.GetSearch(ctx, "owner-1", record.ID)
	if err != nil {
		t.Fatalf("GetSearch() failed: %v", err)
	}
	if got.Results == nil {
		t.Error("Expected non-nil empty results")
	}
	if len(got.Results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(got.Results))
	}
}

// TestMemoryStore_ListOrdering tests newest-first ordering with ID tiebreak.
func TestMemoryStore_ListOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(2 * time.Hour), base.Add(time.Hour)}
	idx := 0
	store.SetClock(func() time.Time { t := times[idx]; idx++; return t })

	var ids []string
	for i := 0; i < 3; i++ {
		record, err := store.RecordSearch(ctx, "owner-1", map[string]any{"n": i}, nil)
		if err != nil {
			t.Fatalf("RecordSearch() failed: %v", err)
		}
		ids = append(ids, record.ID)
	}

	records, err := store.ListSearches(ctx, "owner-1", nil)
	if err != nil {
		t.Fatalf("ListSearches() failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	// base+2h, base+1h, base
	if records[0].ID != ids[1] || records[1].ID != ids[2] || records[2].ID != ids[0] {
		t.Errorf("Expected newest-first order [%s %s %s], got [%s %s %s]",
			ids[1], ids[2], ids[0], records[0].ID, records[1].ID, records[2].ID)
	}
}

// TestMemoryStore_ListOrderingTiebreak tests the ID tiebreak for equal times.
func TestMemoryStore_ListOrderingTiebreak(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })

	for i := 0; i < 5; i++ {
		if _, err := store.RecordSearch(ctx, "owner-1", map[string]any{"n": i}, nil); err != nil {
			t.Fatalf("RecordSearch() failed: %v", err)
		}
	}

	records, err := store.ListSearches(ctx, "owner-1", nil)
	if err != nil {
		t.Fatalf("ListSearches() failed: %v", err)
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].ID > records[i].ID {
			t.Errorf("Expected ID ascending tiebreak, got %s before %s", records[i-1].ID, records[i].ID)
		}
	}
}

// TestMemoryStore_OwnershipIsolation tests cross-owner access.
func TestMemoryStore_OwnershipIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record, err := store.RecordSearch(ctx, "owner-1", map[string]any{"city": "X"}, nil)
	if err != nil {
		t.Fatalf("RecordSearch() failed: %v", err)
	}

	var notFound *search.NotFoundError

	_, err = store.GetSearch(ctx, "owner-2", record.ID)
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for cross-owner get, got %v", err)
	}

	err = store.DeleteSearch(ctx, "owner-2", record.ID)
	if !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for cross-owner delete, got %v", err)
	}

	// The record is untouched for its real owner.
	if _, err := store.GetSearch(ctx, "owner-1", record.ID); err != nil {
		t.Errorf("Record should still exist for its owner: %v", err)
	}

	records, err := store.ListSearches(ctx, "owner-2", nil)
	if err != nil {
		t.Fatalf("ListSearches() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records for owner-2, got %d", len(records))
	}
}

// TestMemoryStore_Filters tests address and time filtering with pagination.
func TestMemoryStore_Filters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	idx := 0
	store.SetClock(func() time.Time { t := base.Add(time.Duration(idx) * time.Hour); idx++; return t })

	hits := []search.PropertyHit{{Address: "400 Oakhurst Lane", TaxAssessments: []search.YearAmount{}, PropertyTaxes: []search.YearAmount{}}}
	if _, err := store.RecordSearch(ctx, "owner-1", map[string]any{"n": 0}, hits); err != nil {
		t.Fatalf("RecordSearch() failed: %v", err)
	}
	for i := 1; i < 4; i++ {
		if _, err := store.RecordSearch(ctx, "owner-1", map[string]any{"n": i}, nil); err != nil {
			t.Fatalf("RecordSearch() failed: %v", err)
		}
	}

	// Address substring, case-insensitive.
	records, err := store.ListSearches(ctx, "owner-1", &search.Filter{AddressContains: "OAK"})
	if err != nil {
		t.Fatalf("ListSearches() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record matching address, got %d", len(records))
	}

	// Inclusive time bounds.
	from := base.Add(time.Hour)
	until := base.Add(2 * time.Hour)
	records, err = store.ListSearches(ctx, "owner-1", &search.Filter{From: &from, Until: &until})
	if err != nil {
		t.Fatalf("ListSearches() failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records in time range, got %d", len(records))
	}

	// Pagination applies after ordering.
	records, err = store.ListSearches(ctx, "owner-1", &search.Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListSearches() failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records with limit/offset, got %d", len(records))
	}

	count, err := store.CountSearches(ctx, "owner-1", &search.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("CountSearches() failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected count to ignore pagination, got %d", count)
	}
}

// TestMemoryStore_Prune tests cutoff-based pruning across owners.
func TestMemoryStore_Prune(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	idx := 0
	store.SetClock(func() time.Time { t := base.Add(time.Duration(idx) * 24 * time.Hour); idx++; return t })

	for i, owner := range []string{"owner-1", "owner-2", "owner-1"} {
		if _, err := store.RecordSearch(ctx, owner, map[string]any{"n": i}, nil); err != nil {
			t.Fatalf("RecordSearch() failed: %v", err)
		}
	}

	deleted, err := store.PruneSearches(ctx, base.Add(36*time.Hour))
	if err != nil {
		t.Fatalf("PruneSearches() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 pruned records, got %d", deleted)
	}
	if store.Size() != 1 {
		t.Errorf("Expected 1 remaining record, got %d", store.Size())
	}
}

// TestMemoryStore_CapSearches tests count-based pruning.
func TestMemoryStore_CapSearches(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	idx := 0
	store.SetClock(func() time.Time { t := base.Add(time.Duration(idx) * time.Hour); idx++; return t })

	var newest string
	for i, owner := range []string{"owner-1", "owner-2", "owner-1", "owner-2"} {
		record, err := store.RecordSearch(ctx, owner, map[string]any{"n": i}, nil)
		if err != nil {
			t.Fatalf("RecordSearch() failed: %v", err)
		}
		newest = record.ID
	}

	// A cap above the current size deletes nothing.
	deleted, err := store.CapSearches(ctx, 10)
	if err != nil {
		t.Fatalf("CapSearches() failed: %v", err)
	}
	if deleted != 0 || store.Size() != 4 {
		t.Errorf("Expected no deletions above the cap, got %d deleted, %d left", deleted, store.Size())
	}

	// Capping to 1 keeps only the newest record, across owners.
	deleted, err = store.CapSearches(ctx, 1)
	if err != nil {
		t.Fatalf("CapSearches() failed: %v", err)
	}
	if deleted != 3 || store.Size() != 1 {
		t.Errorf("Expected 3 deletions, got %d deleted, %d left", deleted, store.Size())
	}
	if _, err := store.GetSearch(ctx, "owner-2", newest); err != nil {
		t.Errorf("Expected the newest record to survive: %v", err)
	}

	if _, err := store.CapSearches(ctx, -1); !search.IsValidation(err) {
		t.Errorf("Expected ValidationError for a negative cap, got %v", err)
	}
}

// TestMemoryStore_Templates tests template lifecycle and name conflicts.
func TestMemoryStore_Templates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	criteria := map[string]any{"city": "Fort Worth"}
	template, err := store.SaveTemplate(ctx, "owner-1", "FW Duplexes", criteria, true)
	if err != nil {
		t.Fatalf("SaveTemplate() failed: %v", err)
	}
	if !template.AutoNotify {
		t.Error("Expected autoNotify to persist")
	}

	// Case-insensitive duplicate.
	var conflict *search.ConflictError
	_, err = store.SaveTemplate(ctx, "owner-1", "fw duplexes", criteria, false)
	if !errors.As(err, &conflict) {
		t.Errorf("Expected ConflictError, got %v", err)
	}

	// Same name for another owner is fine.
	if _, err := store.SaveTemplate(ctx, "owner-2", "FW Duplexes", criteria, false); err != nil {
		t.Errorf("Expected no conflict across owners: %v", err)
	}

	// Touch records run outcome.
	if err := store.TouchTemplate(ctx, "owner-1", template.ID, 7); err != nil {
		t.Fatalf("TouchTemplate() failed: %v", err)
	}
	templates, err := store.ListTemplates(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListTemplates() failed: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("Expected 1 template, got %d", len(templates))
	}
	if templates[0].ResultsCount != 7 || templates[0].LastRun == nil {
		t.Error("Expected touch to set results count and last run")
	}

	// Update rename into a free name.
	updated, err := store.UpdateTemplate(ctx, "owner-1", template.ID, "Renamed", criteria, false)
	if err != nil {
		t.Fatalf("UpdateTemplate() failed: %v", err)
	}
	if updated.Name != "Renamed" || updated.AutoNotify {
		t.Error("Expected update to replace name and autoNotify")
	}

	// Delete with ownership check.
	var notFound *search.NotFoundError
	if err := store.DeleteTemplate(ctx, "owner-2", template.ID); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for cross-owner template delete, got %v", err)
	}
	if err := store.DeleteTemplate(ctx, "owner-1", template.ID); err != nil {
		t.Fatalf("DeleteTemplate() failed: %v", err)
	}
}

// TestMemoryStore_UpdateTemplateRenameConflict tests that renaming onto
// another template's name conflicts, while keeping one's own name does not.
func TestMemoryStore_UpdateTemplateRenameConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	criteria := map[string]any{"city": "X"}
	first, err := store.SaveTemplate(ctx, "owner-1", "first", criteria, false)
	if err != nil {
		t.Fatalf("SaveTemplate() failed: %v", err)
	}
	if _, err := store.SaveTemplate(ctx, "owner-1", "second", criteria, false); err != nil {
		t.Fatalf("SaveTemplate() failed: %v", err)
	}

	var conflict *search.ConflictError
	_, err = store.UpdateTemplate(ctx, "owner-1", first.ID, "SECOND", criteria, false)
	if !errors.As(err, &conflict) {
		t.Errorf("Expected ConflictError on rename collision, got %v", err)
	}

	// Keeping the current name (any case) is not a conflict with itself.
	if _, err := store.UpdateTemplate(ctx, "owner-1", first.ID, "FIRST", criteria, true); err != nil {
		t.Errorf("Expected self-rename to succeed: %v", err)
	}
}

// TestMemoryStore_ReadIsolation tests that returned records are copies.
func TestMemoryStore_ReadIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record, err := store.RecordSearch(ctx, "owner-1", map[string]any{"city": "X"}, sampleHits())
	if err != nil {
		t.Fatalf("RecordSearch() failed: %v", err)
	}

	got, err := store.GetSearch(ctx, "owner-1", record.ID)
	if err != nil {
		t.Fatalf("GetSearch() failed: %v", err)
	}

	// Mutate everything reachable from the returned copy.
	got.Criteria["city"] = "tampered"
	got.Results[0].Address = "tampered"
	*got.Results[0].Beds = 99
	got.Results[0].TaxAssessments[0].Amount = -1

	fresh, err := store.GetSearch(ctx, "owner-1", record.ID)
	if err != nil {
		t.Fatalf("GetSearch() failed: %v", err)
	}
	if fresh.Criteria["city"] != "X" {
		t.Error("Criteria mutation leaked into the store")
	}
	if fresh.Results[0].Address != "123 Oak St, Fort Worth, TX" {
		t.Error("Address mutation leaked into the store")
	}
	if *fresh.Results[0].Beds != 3 {
		t.Error("Pointer mutation leaked into the store")
	}
	if fresh.Results[0].TaxAssessments[0].Amount != 280000 {
		t.Error("History mutation leaked into the store")
	}
}

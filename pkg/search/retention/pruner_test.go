package retention

import (
	"context"
	"testing"
	"time"

	"parcelhq/atlas/pkg/search/storage"
)

// seedAged records searches at fixed ages before the reference time.
func seedAged(t *testing.T, store *storage.MemoryStore, reference time.Time, agesDays []int) {
	t.Helper()
	ctx := context.Background()
	for i, age := range agesDays {
		at := reference.AddDate(0, 0, -age)
		store.SetClock(func() time.Time { return at })
		if _, err := store.RecordSearch(ctx, "owner-1", map[string]any{"n": i}, nil); err != nil {
			t.Fatalf("RecordSearch() failed: %v", err)
		}
	}
}

// TestPruner_Prune tests age-based deletion.
func TestPruner_Prune(t *testing.T) {
	store := storage.NewMemoryStore()
	reference := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedAged(t, store, reference, []int{1, 45, 90, 200})

	pruner := NewPruner(store, &Config{RetentionDays: 60}, nil)
	pruner.now = func() time.Time { return reference }

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deletions (90 and 200 days old), got %d", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("Expected 2 surviving records, got %d", store.Size())
	}
}

// TestPruner_Disabled tests that zero retention keeps everything.
func TestPruner_Disabled(t *testing.T) {
	store := storage.NewMemoryStore()
	reference := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedAged(t, store, reference, []int{1000})

	pruner := NewPruner(store, &Config{RetentionDays: 0}, nil)
	pruner.now = func() time.Time { return reference }

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected no deletions with retention disabled, got %d", deleted)
	}
	if store.Size() != 1 {
		t.Errorf("Expected the ancient record to survive, got %d", store.Size())
	}
}

// TestPruner_CountCap tests the count phase on its own.
func TestPruner_CountCap(t *testing.T) {
	store := storage.NewMemoryStore()
	reference := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedAged(t, store, reference, []int{1, 2, 3, 4, 5})

	pruner := NewPruner(store, &Config{MaxRecords: 2}, nil)
	pruner.now = func() time.Time { return reference }

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected the 3 oldest records deleted, got %d", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("Expected 2 surviving records, got %d", store.Size())
	}

	// The survivors are the newest two.
	records, err := store.ListSearches(context.Background(), "owner-1", nil)
	if err != nil {
		t.Fatalf("ListSearches() failed: %v", err)
	}
	for _, record := range records {
		if record.CreatedAt.Before(reference.AddDate(0, 0, -2)) {
			t.Errorf("Expected only the newest records to survive, found %v", record.CreatedAt)
		}
	}
}

// TestPruner_AgeThenCount tests that both phases run together.
func TestPruner_AgeThenCount(t *testing.T) {
	store := storage.NewMemoryStore()
	reference := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedAged(t, store, reference, []int{1, 2, 3, 100, 200})

	pruner := NewPruner(store, &Config{RetentionDays: 30, MaxRecords: 2}, nil)
	pruner.now = func() time.Time { return reference }

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	// Age phase drops the 100 and 200 day records, count phase one more.
	if deleted != 3 {
		t.Errorf("Expected 3 deletions across both phases, got %d", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("Expected 2 surviving records, got %d", store.Size())
	}
}

// TestPruner_SparesTemplates tests that templates survive pruning.
func TestPruner_SparesTemplates(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return old })
	if _, err := store.SaveTemplate(ctx, "owner-1", "ancient", map[string]any{"city": "X"}, false); err != nil {
		t.Fatalf("SaveTemplate() failed: %v", err)
	}
	if _, err := store.RecordSearch(ctx, "owner-1", map[string]any{"city": "X"}, nil); err != nil {
		t.Fatalf("RecordSearch() failed: %v", err)
	}

	pruner := NewPruner(store, &Config{RetentionDays: 30}, nil)
	if _, err := pruner.Prune(ctx); err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}

	if store.Size() != 0 {
		t.Errorf("Expected the old record to be pruned, got %d", store.Size())
	}
	templates, err := store.ListTemplates(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListTemplates() failed: %v", err)
	}
	if len(templates) != 1 {
		t.Errorf("Expected the template to survive pruning, got %d", len(templates))
	}
}

// TestScheduler_InvalidSchedule tests cron expression validation.
func TestScheduler_InvalidSchedule(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStore(), &Config{
		RetentionDays: 30,
		PruneSchedule: "not a cron line",
	}, nil)

	scheduler := NewScheduler(pruner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err == nil {
		t.Error("Expected an error for an invalid cron expression")
		scheduler.Stop()
	}
	if scheduler.IsRunning() {
		t.Error("Scheduler must not be running after a failed start")
	}
}

// TestScheduler_StartStop tests the lifecycle.
func TestScheduler_StartStop(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStore(), &Config{
		RetentionDays: 30,
		PruneSchedule: "0 3 * * *",
	}, nil)

	scheduler := NewScheduler(pruner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !scheduler.IsRunning() {
		t.Error("Expected the scheduler to be running")
	}

	scheduler.Stop()
	if scheduler.IsRunning() {
		t.Error("Expected the scheduler to be stopped")
	}
}

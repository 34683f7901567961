package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"parcelhq/atlas/pkg/search"
)

// MemoryStore implements the search.Store interface using in-memory maps.
// This implementation is intended for testing only and should not be used in
// production.
type MemoryStore struct {
	mu        sync.RWMutex
	searches  map[string]*search.SearchRecord
	templates map[string]*search.SavedTemplate

	// now is the clock used for CreatedAt assignment; replaced in tests.
	now func() time.Time
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		searches:  make(map[string]*search.SearchRecord),
		templates: make(map[string]*search.SavedTemplate),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the store's clock (for tests).
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// RecordSearch persists one search execution.
func (s *MemoryStore) RecordSearch(ctx context.Context, owner string, criteria map[string]any, results []search.PropertyHit) (*search.SearchRecord, error) {
	if err := validateRecordInput(owner, criteria); err != nil {
		return nil, err
	}
	if results == nil {
		results = []search.PropertyHit{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := &search.SearchRecord{
		ID:        uuid.New().String(),
		Owner:     owner,
		Criteria:  criteria,
		Results:   results,
		CreatedAt: s.now(),
	}
	s.searches[record.ID] = cloneRecord(record)

	return record, nil
}

// ListSearches returns the owner's records matching the filter, newest first
// with ID ascending as the tiebreak.
func (s *MemoryStore) ListSearches(ctx context.Context, owner string, filter *search.Filter) ([]*search.SearchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*search.SearchRecord{}
	for _, record := range s.searches {
		if record.Owner != owner || !matchesFilter(record, filter) {
			continue
		}
		results = append(results, cloneRecord(record))
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(results) {
				return []*search.SearchRecord{}, nil
			}
			results = results[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(results) {
			results = results[:filter.Limit]
		}
	}

	return results, nil
}

// GetSearch returns one record, owner-scoped.
func (s *MemoryStore) GetSearch(ctx context.Context, owner, id string) (*search.SearchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.searches[id]
	if !ok || record.Owner != owner {
		return nil, search.NewNotFoundError("search", owner, id)
	}
	return cloneRecord(record), nil
}

// DeleteSearch removes one record with cross-owner NotFound semantics.
func (s *MemoryStore) DeleteSearch(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.searches[id]
	if !ok || record.Owner != owner {
		return search.NewNotFoundError("search", owner, id)
	}
	delete(s.searches, id)
	return nil
}

// CountSearches returns the number of records matching the filter.
func (s *MemoryStore) CountSearches(ctx context.Context, owner string, filter *search.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.searches {
		if record.Owner == owner && matchesFilter(record, filter) {
			count++
		}
	}
	return count, nil
}

// PruneSearches deletes every record created before the cutoff.
func (s *MemoryStore) PruneSearches(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.searches {
		if record.CreatedAt.Before(cutoff) {
			delete(s.searches, id)
			deleted++
		}
	}
	return deleted, nil
}

// CapSearches keeps only the newest maxRecords records across all owners.
func (s *MemoryStore) CapSearches(ctx context.Context, maxRecords int64) (int64, error) {
	if maxRecords < 0 {
		return 0, search.NewValidationError("maxRecords", "must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if int64(len(s.searches)) <= maxRecords {
		return 0, nil
	}

	all := make([]*search.SearchRecord, 0, len(s.searches))
	for _, record := range s.searches {
		all = append(all, record)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	var deleted int64
	for _, record := range all[maxRecords:] {
		delete(s.searches, record.ID)
		deleted++
	}
	return deleted, nil
}

// SaveTemplate creates a named template with case-insensitive name
// uniqueness per owner.
func (s *MemoryStore) SaveTemplate(ctx context.Context, owner, name string, criteria map[string]any, autoNotify bool) (*search.SavedTemplate, error) {
	if err := validateRecordInput(owner, criteria); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, search.NewValidationError("name", "template name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(owner, name, "") {
		return nil, search.NewConflictError(owner, name)
	}

	template := &search.SavedTemplate{
		ID:         uuid.New().String(),
		Owner:      owner,
		Name:       name,
		Criteria:   criteria,
		AutoNotify: autoNotify,
		CreatedAt:  s.now(),
	}
	s.templates[template.ID] = cloneTemplate(template)

	return template, nil
}

// UpdateTemplate renames a template and/or replaces its criteria and notify
// flag.
func (s *MemoryStore) UpdateTemplate(ctx context.Context, owner, id, name string, criteria map[string]any, autoNotify bool) (*search.SavedTemplate, error) {
	if err := validateRecordInput(owner, criteria); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, search.NewValidationError("name", "template name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.templates[id]
	if !ok || template.Owner != owner {
		return nil, search.NewNotFoundError("template", owner, id)
	}
	if s.nameTaken(owner, name, id) {
		return nil, search.NewConflictError(owner, name)
	}

	template.Name = name
	template.Criteria = criteria
	template.AutoNotify = autoNotify

	return cloneTemplate(template), nil
}

// TouchTemplate records the outcome of a template-driven execution.
func (s *MemoryStore) TouchTemplate(ctx context.Context, owner, id string, resultsCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.templates[id]
	if !ok || template.Owner != owner {
		return search.NewNotFoundError("template", owner, id)
	}
	now := s.now()
	template.ResultsCount = resultsCount
	template.LastRun = &now
	return nil
}

// ListTemplates returns the owner's templates, newest first with ID
// ascending as the tiebreak.
func (s *MemoryStore) ListTemplates(ctx context.Context, owner string) ([]*search.SavedTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := []*search.SavedTemplate{}
	for _, template := range s.templates {
		if template.Owner == owner {
			templates = append(templates, cloneTemplate(template))
		}
	}

	sort.Slice(templates, func(i, j int) bool {
		if !templates[i].CreatedAt.Equal(templates[j].CreatedAt) {
			return templates[i].CreatedAt.After(templates[j].CreatedAt)
		}
		return templates[i].ID < templates[j].ID
	})

	return templates, nil
}

// DeleteTemplate removes one template with cross-owner NotFound semantics.
func (s *MemoryStore) DeleteTemplate(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.templates[id]
	if !ok || template.Owner != owner {
		return search.NewNotFoundError("template", owner, id)
	}
	delete(s.templates, id)
	return nil
}

// Close releases the store's contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches = make(map[string]*search.SearchRecord)
	s.templates = make(map[string]*search.SavedTemplate)
	return nil
}

// Size returns the number of search records in storage (for testing).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.searches)
}

func (s *MemoryStore) nameTaken(owner, name, excludeID string) bool {
	for _, template := range s.templates {
		if template.ID == excludeID {
			continue
		}
		if template.Owner == owner && strings.EqualFold(template.Name, name) {
			return true
		}
	}
	return false
}

func matchesFilter(record *search.SearchRecord, filter *search.Filter) bool {
	if filter == nil {
		return true
	}

	if filter.AddressContains != "" {
		needle := strings.ToLower(filter.AddressContains)
		found := false
		for _, hit := range record.Results {
			if strings.Contains(strings.ToLower(hit.Address), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.From != nil && record.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.Until != nil && record.CreatedAt.After(*filter.Until) {
		return false
	}

	return true
}

// cloneRecord deep-copies a record so callers never hold live references
// into the store.
func cloneRecord(record *search.SearchRecord) *search.SearchRecord {
	out := *record
	out.Criteria = cloneMap(record.Criteria)
	out.Results = make([]search.PropertyHit, len(record.Results))
	for i, hit := range record.Results {
		out.Results[i] = cloneHit(hit)
	}
	return &out
}

func cloneHit(hit search.PropertyHit) search.PropertyHit {
	out := hit
	out.Beds = cloneIntPtr(hit.Beds)
	out.Baths = cloneFloatPtr(hit.Baths)
	out.SquareFootage = cloneIntPtr(hit.SquareFootage)
	out.Price = cloneFloatPtr(hit.Price)
	out.TaxAssessments = append([]search.YearAmount{}, hit.TaxAssessments...)
	out.PropertyTaxes = append([]search.YearAmount{}, hit.PropertyTaxes...)
	if hit.RawExtra != nil {
		out.RawExtra = cloneMap(hit.RawExtra)
	}
	return out
}

func cloneTemplate(template *search.SavedTemplate) *search.SavedTemplate {
	out := *template
	out.Criteria = cloneMap(template.Criteria)
	if template.LastRun != nil {
		lr := *template.LastRun
		out.LastRun = &lr
	}
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

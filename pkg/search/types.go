package search

import (
	"context"
	"io"
	"time"
)

// Unknown is the explicit marker rendered in lossy export formats for a core
// attribute that was absent from the source data. It distinguishes "no data"
// from a legitimate zero or empty value.
const Unknown = "unknown"

// Format identifies an export output format.
type Format string

const (
	// FormatJSON is the lossless structured-data format. It is the only
	// format from which a SearchRecord can be reconstructed field-for-field.
	FormatJSON Format = "json"

	// FormatCSV is a single flat table, one row per property hit.
	FormatCSV Format = "csv"

	// FormatWorkbook is a multi-sheet spreadsheet (xlsx) with long-form tax
	// history sheets.
	FormatWorkbook Format = "xlsx"

	// FormatReport is a paginated human-readable PDF document.
	FormatReport Format = "report"
)

// Formats lists every known export format in a fixed order.
var Formats = []Format{FormatJSON, FormatCSV, FormatWorkbook, FormatReport}

// Valid reports whether f names a known export format.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// YearAmount is one (year, amount) entry in a hit's tax history.
// Histories are kept sorted ascending by year; duplicate years from the
// source are preserved as given, not deduplicated.
type YearAmount struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

// PropertyHit is one property returned by a search execution.
//
// Core scalar attributes use pointers so that an absent source value stays
// distinguishable from zero: nil means unknown. Fields the canonical schema
// does not model are preserved verbatim in RawExtra so the structured-data
// export stays lossless as the source schema evolves.
type PropertyHit struct {
	Address       string  `json:"address"`
	Beds          *int    `json:"beds"`
	Baths         *float64 `json:"baths"`
	SquareFootage *int    `json:"square_footage"`
	Price         *float64 `json:"price"`

	// TaxAssessments and PropertyTaxes are independently ordered by year
	// ascending (the normalizer's single sort; exporters trust this order).
	TaxAssessments []YearAmount `json:"tax_assessments"`
	PropertyTaxes  []YearAmount `json:"property_taxes"`

	RawExtra map[string]any `json:"raw_extra,omitempty"`
}

// LatestAssessment returns the most recent tax assessment entry, or false if
// the hit has no assessment history.
func (h *PropertyHit) LatestAssessment() (YearAmount, bool) {
	if len(h.TaxAssessments) == 0 {
		return YearAmount{}, false
	}
	return h.TaxAssessments[len(h.TaxAssessments)-1], true
}

// LatestTax returns the most recent property-tax entry, or false if the hit
// has no tax history.
func (h *PropertyHit) LatestTax() (YearAmount, bool) {
	if len(h.PropertyTaxes) == 0 {
		return YearAmount{}, false
	}
	return h.PropertyTaxes[len(h.PropertyTaxes)-1], true
}

// SearchRecord is one persisted execution of a property search.
//
// ID, Owner and CreatedAt are set once at creation and never change.
// Criteria is never empty; Results may be empty (zero matches) but is never
// absent, and its order is the return order from the search provider.
type SearchRecord struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner"`
	Criteria  map[string]any `json:"criteria"`
	Results   []PropertyHit  `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
}

// SavedTemplate is a reusable named search definition, decoupled from any
// execution. Templates are only ever created by an explicit user action,
// never implicitly by running a search.
type SavedTemplate struct {
	ID         string         `json:"id"`
	Owner      string         `json:"owner"`
	Name       string         `json:"name"` // unique per owner, case-insensitive
	Criteria   map[string]any `json:"criteria"`
	AutoNotify bool           `json:"auto_notify"`
	CreatedAt  time.Time      `json:"created_at"`

	// ResultsCount and LastRun track the most recent template-driven
	// execution; zero/nil until TouchTemplate is called.
	ResultsCount int        `json:"results_count"`
	LastRun      *time.Time `json:"last_run,omitempty"`
}

// Filter narrows a ListSearches call. The zero value matches everything.
type Filter struct {
	// AddressContains matches records where any hit's normalized address
	// contains the substring, case-insensitively.
	AddressContains string

	// From and Until bound CreatedAt (inclusive).
	From  *time.Time
	Until *time.Time

	// Pagination. Limit 0 means no limit.
	Limit  int
	Offset int
}

// Store is the durable record store for search executions and templates.
//
// Every read returns copies; callers never hold live references into the
// store, so all mutation goes through the write operations and is durable
// before the call returns. Implementations must be safe for concurrent use
// and must preserve the ordering invariants: ListSearches and ListTemplates
// return newest-CreatedAt-first with ID ascending as the tiebreak.
type Store interface {
	// RecordSearch persists one search execution. It assigns the ID and
	// CreatedAt, never deduplicates, and returns a ValidationError when
	// criteria is empty. results may be empty but not nil-invalid.
	RecordSearch(ctx context.Context, owner string, criteria map[string]any, results []PropertyHit) (*SearchRecord, error)

	// ListSearches returns the owner's records matching the filter,
	// newest first. A nil filter matches everything.
	ListSearches(ctx context.Context, owner string, filter *Filter) ([]*SearchRecord, error)

	// GetSearch returns one record. A missing id and an id belonging to
	// another owner are both a NotFoundError.
	GetSearch(ctx context.Context, owner, id string) (*SearchRecord, error)

	// DeleteSearch removes one record. Cross-owner deletion is a
	// NotFoundError, never a distinct permission error.
	DeleteSearch(ctx context.Context, owner, id string) error

	// CountSearches returns the number of records matching the filter,
	// ignoring Limit/Offset.
	CountSearches(ctx context.Context, owner string, filter *Filter) (int64, error)

	// PruneSearches deletes every record, regardless of owner, created
	// before the cutoff. Returns the number deleted.
	PruneSearches(ctx context.Context, cutoff time.Time) (int64, error)

	// CapSearches keeps only the newest maxRecords records, regardless of
	// owner, deleting the oldest beyond the cap. "Newest" follows the
	// listing order (CreatedAt descending, ID ascending as the tiebreak).
	// Returns the number deleted.
	CapSearches(ctx context.Context, maxRecords int64) (int64, error)

	// SaveTemplate creates a named template. Returns a ConflictError when
	// the owner already has a template with the same name, compared
	// case-insensitively.
	SaveTemplate(ctx context.Context, owner, name string, criteria map[string]any, autoNotify bool) (*SavedTemplate, error)

	// UpdateTemplate renames a template and/or replaces its criteria and
	// autoNotify flag. NotFound and Conflict semantics match SaveTemplate.
	UpdateTemplate(ctx context.Context, owner, id, name string, criteria map[string]any, autoNotify bool) (*SavedTemplate, error)

	// TouchTemplate records the outcome of a template-driven execution.
	TouchTemplate(ctx context.Context, owner, id string, resultsCount int) error

	// ListTemplates returns the owner's templates, newest first.
	ListTemplates(ctx context.Context, owner string) ([]*SavedTemplate, error)

	// DeleteTemplate removes one template with NotFound semantics matching
	// DeleteSearch.
	DeleteTemplate(ctx context.Context, owner, id string) error

	// Close releases resources held by the storage backend.
	Close() error
}

// Exporter encodes one search record to a byte stream.
//
// Implementations are stateless and safe to invoke concurrently on distinct
// records. Encoding the same record twice yields byte-identical output; any
// timestamp shown in an output is an explicit input, never the system clock.
type Exporter interface {
	Export(ctx context.Context, record *SearchRecord, w io.Writer) error
}

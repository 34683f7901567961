package export

import (
	"context"
	"fmt"
	"io"

	"parcelhq/atlas/pkg/search"
)

// DefaultMaxBulkRecords bounds a single bulk export call. Long exports are
// limited by this cap rather than by cooperative cancellation.
const DefaultMaxBulkRecords = 500

// BulkExporter merges an ordered sequence of search records into a single
// output. The tabular and workbook targets concatenate per-record rows and
// prefix every row with a source_search_id column; the JSON target emits an
// array of full records.
//
// The report format is a single-search narrative and is intentionally not
// offered in bulk mode; requesting it is a usage error.
type BulkExporter struct {
	// MaxRecords caps the number of records in one call.
	// Default: DefaultMaxBulkRecords.
	MaxRecords int

	// PrettyJSON enables indentation for the JSON target.
	PrettyJSON bool
}

// NewBulkExporter creates a new bulk exporter with the default record cap.
func NewBulkExporter() *BulkExporter {
	return &BulkExporter{MaxRecords: DefaultMaxBulkRecords}
}

// Export encodes records in the given target format, preserving the input
// order.
func (e *BulkExporter) Export(ctx context.Context, records []*search.SearchRecord, format search.Format, w io.Writer) error {
	if format == search.FormatReport {
		return search.NewValidationError("format", "report format is not available for bulk export")
	}
	if !format.Valid() {
		return search.NewValidationError("format", fmt.Sprintf("unknown export format %q", format))
	}

	max := e.MaxRecords
	if max <= 0 {
		max = DefaultMaxBulkRecords
	}
	if len(records) > max {
		return search.NewValidationError("records",
			fmt.Sprintf("bulk export limited to %d records per call, got %d", max, len(records)))
	}

	switch format {
	case search.FormatJSON:
		return NewJSONExporter(e.PrettyJSON).ExportAll(ctx, records, w)
	case search.FormatCSV:
		return NewCSVExporter(true).ExportAll(ctx, records, w)
	case search.FormatWorkbook:
		return NewWorkbookExporter().ExportAll(ctx, records, w)
	default:
		return search.NewValidationError("format", fmt.Sprintf("unknown export format %q", format))
	}
}

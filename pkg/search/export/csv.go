package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"parcelhq/atlas/pkg/search"
)

// CSVExporter exports a search record as a single flat table: one row per
// property hit, in results order.
//
// The column set is fixed: address and the core scalar attributes, plus the
// most recent tax-assessment and property-tax entries as a summary. Older
// history years and RawExtra are deliberately not represented; spreadsheet
// consumers who need full history use the workbook format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes one row per hit to w.
func (e *CSVExporter) Export(ctx context.Context, record *search.SearchRecord, w io.Writer) error {
	return e.export(ctx, []*search.SearchRecord{record}, w, false)
}

// ExportAll writes the hits of an ordered record sequence as one merged
// table. Every row carries a leading source_search_id column naming its
// origin record. Used by the bulk variant.
func (e *CSVExporter) ExportAll(ctx context.Context, records []*search.SearchRecord, w io.Writer) error {
	return e.export(ctx, records, w, true)
}

func (e *CSVExporter) export(ctx context.Context, records []*search.SearchRecord, w io.Writer, withSource bool) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(csvHeader(withSource)); err != nil {
			return search.NewExportError(search.FormatCSV, len(records), err)
		}
	}

	for _, record := range records {
		for i := range record.Results {
			if err := writer.Write(hitRow(record, &record.Results[i], withSource)); err != nil {
				return search.NewExportError(search.FormatCSV, len(records), err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return search.NewExportError(search.FormatCSV, len(records), err)
	}
	return nil
}

// csvHeader returns the fixed CSV column set.
func csvHeader(withSource bool) []string {
	header := []string{
		"address", "beds", "baths", "square_footage", "price",
		"latest_assessment_year", "latest_assessment_value",
		"latest_tax_year", "latest_tax_amount",
	}
	if withSource {
		return append([]string{"source_search_id"}, header...)
	}
	return header
}

// hitRow converts one hit to a CSV row. Missing values render as the
// explicit unknown marker, never as zero or an empty cell.
func hitRow(record *search.SearchRecord, hit *search.PropertyHit, withSource bool) []string {
	row := []string{
		hit.Address,
		formatIntPtr(hit.Beds),
		formatFloatPtr(hit.Baths),
		formatIntPtr(hit.SquareFootage),
		formatFloatPtr(hit.Price),
	}

	if latest, ok := hit.LatestAssessment(); ok {
		row = append(row, strconv.Itoa(latest.Year), formatFloat(latest.Amount))
	} else {
		row = append(row, search.Unknown, search.Unknown)
	}

	if latest, ok := hit.LatestTax(); ok {
		row = append(row, strconv.Itoa(latest.Year), formatFloat(latest.Amount))
	} else {
		row = append(row, search.Unknown, search.Unknown)
	}

	if withSource {
		return append([]string{record.ID}, row...)
	}
	return row
}

func formatIntPtr(p *int) string {
	if p == nil {
		return search.Unknown
	}
	return strconv.Itoa(*p)
}

func formatFloatPtr(p *float64) string {
	if p == nil {
		return search.Unknown
	}
	return formatFloat(*p)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"parcelhq/atlas/pkg/search"
)

// Workbook sheet names, one per logical category.
const (
	sheetProperties  = "Properties"
	sheetAssessments = "Tax Assessments"
	sheetTaxes       = "Property Taxes"
	sheetSearchInfo  = "Search Info"
)

// WorkbookExporter exports a search record as a multi-sheet xlsx workbook.
//
// Unlike the tabular CSV format, the tax-assessment and property-tax sheets
// are long-form, one row per (hit, year) pair, so no history information
// is summarized away. The Search Info sheet records the criteria, owner,
// creation time and result count.
type WorkbookExporter struct{}

// NewWorkbookExporter creates a new workbook exporter.
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

// Export writes the record as an xlsx workbook to w.
func (e *WorkbookExporter) Export(ctx context.Context, record *search.SearchRecord, w io.Writer) error {
	return e.export([]*search.SearchRecord{record}, w, false)
}

// ExportAll writes an ordered record sequence as one merged workbook. Every
// row on every data sheet carries a leading source_search_id column, and the
// Search Info sheet holds one row per source record. Used by the bulk
// variant.
func (e *WorkbookExporter) ExportAll(ctx context.Context, records []*search.SearchRecord, w io.Writer) error {
	return e.export(records, w, true)
}

func (e *WorkbookExporter) export(records []*search.SearchRecord, w io.Writer, withSource bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.build(f, records, withSource); err != nil {
		return search.NewExportError(search.FormatWorkbook, len(records), err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return search.NewExportError(search.FormatWorkbook, len(records), err)
	}
	return nil
}

func (e *WorkbookExporter) build(f *excelize.File, records []*search.SearchRecord, withSource bool) error {
	if err := f.SetSheetName("Sheet1", sheetProperties); err != nil {
		return err
	}
	for _, name := range []string{sheetAssessments, sheetTaxes, sheetSearchInfo} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	if err := e.writeProperties(f, records, withSource); err != nil {
		return err
	}
	if err := e.writeHistory(f, sheetAssessments, records, withSource, assessmentHistory); err != nil {
		return err
	}
	if err := e.writeHistory(f, sheetTaxes, records, withSource, taxHistory); err != nil {
		return err
	}
	return e.writeSearchInfo(f, records, withSource)
}

func (e *WorkbookExporter) writeProperties(f *excelize.File, records []*search.SearchRecord, withSource bool) error {
	header := []any{"address", "beds", "baths", "square_footage", "price"}
	if withSource {
		header = append([]any{"source_search_id"}, header...)
	}
	if err := setRow(f, sheetProperties, 1, header); err != nil {
		return err
	}

	rowIdx := 2
	for _, record := range records {
		for i := range record.Results {
			hit := &record.Results[i]
			row := []any{
				hit.Address,
				cellIntPtr(hit.Beds),
				cellFloatPtr(hit.Baths),
				cellIntPtr(hit.SquareFootage),
				cellFloatPtr(hit.Price),
			}
			if withSource {
				row = append([]any{record.ID}, row...)
			}
			if err := setRow(f, sheetProperties, rowIdx, row); err != nil {
				return err
			}
			rowIdx++
		}
	}
	return nil
}

// writeHistory emits a long-form sheet: one row per (hit, year) pair, in
// results order then year order as normalized.
func (e *WorkbookExporter) writeHistory(f *excelize.File, sheet string, records []*search.SearchRecord, withSource bool, entries func(*search.PropertyHit) []search.YearAmount) error {
	header := []any{"property_index", "address", "year", "amount"}
	if withSource {
		header = append([]any{"source_search_id"}, header...)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	rowIdx := 2
	for _, record := range records {
		for i := range record.Results {
			hit := &record.Results[i]
			for _, entry := range entries(hit) {
				row := []any{i + 1, hit.Address, entry.Year, entry.Amount}
				if withSource {
					row = append([]any{record.ID}, row...)
				}
				if err := setRow(f, sheet, rowIdx, row); err != nil {
					return err
				}
				rowIdx++
			}
		}
	}
	return nil
}

func (e *WorkbookExporter) writeSearchInfo(f *excelize.File, records []*search.SearchRecord, withSource bool) error {
	if withSource {
		header := []any{"search_id", "owner", "created_at", "result_count", "criteria"}
		if err := setRow(f, sheetSearchInfo, 1, header); err != nil {
			return err
		}
		for i, record := range records {
			criteria, err := json.Marshal(record.Criteria)
			if err != nil {
				return err
			}
			row := []any{record.ID, record.Owner, formatWorkbookTime(record.CreatedAt), len(record.Results), string(criteria)}
			if err := setRow(f, sheetSearchInfo, i+2, row); err != nil {
				return err
			}
		}
		return nil
	}

	record := records[0]
	rows := [][]any{
		{"field", "value"},
		{"search_id", record.ID},
		{"owner", record.Owner},
		{"created_at", formatWorkbookTime(record.CreatedAt)},
		{"result_count", len(record.Results)},
	}
	for _, key := range sortedKeys(record.Criteria) {
		rows = append(rows, []any{"criteria." + key, criteriaCell(record.Criteria[key])})
	}

	for i, row := range rows {
		if err := setRow(f, sheetSearchInfo, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func assessmentHistory(hit *search.PropertyHit) []search.YearAmount {
	return hit.TaxAssessments
}

func taxHistory(hit *search.PropertyHit) []search.YearAmount {
	return hit.PropertyTaxes
}

func cellIntPtr(p *int) any {
	if p == nil {
		return search.Unknown
	}
	return *p
}

func cellFloatPtr(p *float64) any {
	if p == nil {
		return search.Unknown
	}
	return *p
}

// criteriaCell renders a criteria value for the Search Info sheet: scalars
// as-is, nested values as compact JSON.
func criteriaCell(v any) any {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatWorkbookTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

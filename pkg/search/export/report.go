package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"parcelhq/atlas/pkg/search"
)

// abbreviatedHistoryYears caps the tax history shown per property in the
// report. The workbook format carries the full history.
const abbreviatedHistoryYears = 3

// ReportExporter exports a search record as a paginated, human-readable PDF
// document: a header section with the criteria, timestamp and result count,
// then one block per property hit with core attributes and abbreviated tax
// history. RawExtra is omitted: the report is descriptive, not exhaustive.
type ReportExporter struct {
	// GeneratedAt is the generation timestamp shown in the report header
	// and pinned as the PDF creation date. It is an explicit input, never
	// read from the system clock, so encoding stays deterministic. The
	// zero value renders as the Unix epoch.
	GeneratedAt time.Time
}

// NewReportExporter creates a new report exporter with the given generation
// timestamp.
func NewReportExporter(generatedAt time.Time) *ReportExporter {
	return &ReportExporter{GeneratedAt: generatedAt}
}

// Export writes the record as a PDF report to w.
func (e *ReportExporter) Export(ctx context.Context, record *search.SearchRecord, w io.Writer) error {
	generated := e.GeneratedAt
	if generated.IsZero() {
		generated = time.Unix(0, 0)
	}
	generated = generated.UTC()

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetTitle("Property Search Report", false)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Property Search Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	e.writeHeader(pdf, record, generated)

	for i := range record.Results {
		e.writeHit(pdf, i+1, &record.Results[i])
	}

	if err := pdf.Output(w); err != nil {
		return search.NewExportError(search.FormatReport, 1, err)
	}
	return nil
}

func (e *ReportExporter) writeHeader(pdf *fpdf.Fpdf, record *search.SearchRecord, generated time.Time) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Search Information", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	e.keyValue(pdf, "Search ID", record.ID)
	e.keyValue(pdf, "Owner", record.Owner)
	e.keyValue(pdf, "Searched At", record.CreatedAt.UTC().Format(time.RFC3339))
	e.keyValue(pdf, "Generated At", generated.Format(time.RFC3339))
	e.keyValue(pdf, "Properties Found", strconv.Itoa(len(record.Results)))

	for _, key := range sortedKeys(record.Criteria) {
		e.keyValue(pdf, "Criteria: "+key, fmt.Sprint(criteriaCell(record.Criteria[key])))
	}
	pdf.Ln(4)
}

func (e *ReportExporter) writeHit(pdf *fpdf.Fpdf, index int, hit *search.PropertyHit) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Property %d", index), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	e.keyValue(pdf, "Address", hit.Address)
	e.keyValue(pdf, "Beds", formatIntPtr(hit.Beds))
	e.keyValue(pdf, "Baths", formatFloatPtr(hit.Baths))
	e.keyValue(pdf, "Square Footage", formatIntPtr(hit.SquareFootage))
	e.keyValue(pdf, "Price", formatFloatPtr(hit.Price))

	e.writeHistoryLine(pdf, "Assessments", hit.TaxAssessments)
	e.writeHistoryLine(pdf, "Property Taxes", hit.PropertyTaxes)

	pdf.Ln(3)
}

// writeHistoryLine renders the most recent years of a tax history as one
// "year: amount" line, oldest shown first.
func (e *ReportExporter) writeHistoryLine(pdf *fpdf.Fpdf, label string, history []search.YearAmount) {
	if len(history) == 0 {
		e.keyValue(pdf, label, "none on record")
		return
	}

	start := len(history) - abbreviatedHistoryYears
	if start < 0 {
		start = 0
	}

	line := ""
	for _, entry := range history[start:] {
		if line != "" {
			line += ", "
		}
		line += fmt.Sprintf("%d: %s", entry.Year, formatFloat(entry.Amount))
	}
	e.keyValue(pdf, label, line)
}

func (e *ReportExporter) keyValue(pdf *fpdf.Fpdf, key, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 6, key, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, value, "", "L", false)
}

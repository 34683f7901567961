package export

import (
	"context"
	"encoding/json"
	"io"

	"parcelhq/atlas/pkg/search"
)

// JSONExporter exports a search record as structured JSON. It is the only
// lossless format: every field, including each hit's RawExtra, is emitted.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes the full record to w. Map keys are emitted in sorted order,
// so identical records always produce identical bytes.
func (e *JSONExporter) Export(ctx context.Context, record *search.SearchRecord, w io.Writer) error {
	data, err := e.marshal(record)
	if err != nil {
		return search.NewExportError(search.FormatJSON, 1, err)
	}
	if _, err := w.Write(data); err != nil {
		return search.NewExportError(search.FormatJSON, 1, err)
	}
	return nil
}

// ExportAll writes an ordered record sequence as a JSON array of full
// records. Used by the bulk variant.
func (e *JSONExporter) ExportAll(ctx context.Context, records []*search.SearchRecord, w io.Writer) error {
	if len(records) == 0 {
		if _, err := w.Write([]byte("[]")); err != nil {
			return search.NewExportError(search.FormatJSON, 0, err)
		}
		return nil
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return search.NewExportError(search.FormatJSON, len(records), err)
	}
	if _, err := w.Write(data); err != nil {
		return search.NewExportError(search.FormatJSON, len(records), err)
	}
	return nil
}

// Decode reverses Export, reconstructing the record field-for-field.
func (e *JSONExporter) Decode(r io.Reader) (*search.SearchRecord, error) {
	var record search.SearchRecord
	if err := json.NewDecoder(r).Decode(&record); err != nil {
		return nil, search.NewExportError(search.FormatJSON, 1, err)
	}
	return &record, nil
}

func (e *JSONExporter) marshal(record *search.SearchRecord) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(record, "", "  ")
	}
	return json.Marshal(record)
}

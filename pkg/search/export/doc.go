// Package export provides the stateless search-record encoders.
//
// # Export Formats
//
//   - JSON: the full record with nothing omitted, including RawExtra. The
//     only lossless format and the canonical round-trip target (Decode
//     reverses Export field-for-field).
//   - CSV: one row per property hit with a fixed column set; multi-valued
//     tax history is summarized to the most recent year. Lossy.
//   - Workbook (xlsx): one sheet per logical category. The tax sheets are
//     long-form, one row per (hit, year) pair, so nothing is summarized
//     away.
//   - Report (pdf): a paginated human-readable document. RawExtra is
//     omitted.
//
// # Determinism
//
// Encoding the same record twice yields byte-identical output. No encoder
// reads the system clock: the report's generation timestamp is an explicit
// field on the exporter.
//
// # Bulk Exports
//
// BulkExporter merges an ordered record sequence before encoding. For the
// tabular and workbook targets every row gains a leading source_search_id
// column so provenance is never lost; the JSON target emits an array of full
// records. The report format is a single-search narrative and is not
// offered in bulk mode.
//
// # Error Handling
//
// Encoders return ExportError on failure and ValidationError for usage
// errors (bulk report requests, bulk calls over the record cap). Exporters
// hold no shared mutable state and are safe for concurrent use.
package export

// Package usage records export-usage events: which owner exported in which
// format, when.
//
// Format usage cannot be inferred from the record store, so every export
// call site reports an explicit event after a successful export. The
// analytics aggregator reads these events back as per-format counts.
package usage

// Package normalize converts raw provider payloads into canonical
// PropertyHit values before they reach the record store.
//
// The normalizer is the stability boundary between upstream API drift and
// the export formats:
//
//   - unknown or extra source fields are preserved under RawExtra, never
//     dropped, so the structured-data export stays lossless;
//   - missing scalar core attributes default to an explicit unknown marker,
//     never to zero or an empty string;
//   - tax and assessment histories are sorted ascending by year here, and
//     only here; exporters trust the order they receive.
package normalize

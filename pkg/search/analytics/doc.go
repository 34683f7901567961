// Package analytics computes read-only summary statistics over an owner's
// search history: activity counts over time, the most-repeated search
// criteria, and per-format export usage.
//
// The aggregator never writes; it reads the same record store the rest of
// the system uses, plus the export-usage event log. Time-bucketed results
// are sparse: buckets with zero activity are omitted, and callers needing a
// dense series fill the gaps themselves.
package analytics

// Atlas is a property-search persistence and export engine.
//
// It records property search executions as immutable history, keeps reusable
// search templates, and exports any recorded search in structured, tabular,
// workbook and report formats.
//
// Usage:
//
//	# Run a search and record the result
//	atlas search run --owner analyst-1 --criteria '{"city":"Fort Worth","state":"TX"}'
//
//	# List recorded searches
//	atlas search list --owner analyst-1
//
//	# Export one search as a spreadsheet
//	atlas export --owner analyst-1 --id <record-id> --format xlsx -o search.xlsx
//
//	# Show search activity per week
//	atlas stats activity --owner analyst-1 --bucket week
//
//	# Prune history older than the retention period
//	atlas prune --days 90
package main

func main() {
	Execute()
}

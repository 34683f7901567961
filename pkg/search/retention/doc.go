// Package retention enforces retention limits on search executions.
//
// A Pruner deletes records in two phases: by age (records older than the
// configured retention period) and by count (the oldest records beyond a
// total cap). A Scheduler runs the pruner on a cron schedule. Saved
// templates are a user's explicit configuration and are never pruned.
package retention

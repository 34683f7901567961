// Package storage provides record store backends for search executions and
// saved templates.
//
// # Backends
//
//   - SQLiteStore: durable single-node store (WAL mode, owner-scoped rows).
//     Every write is committed before the call returns; there is no async
//     write path.
//   - MemoryStore: in-memory store for tests.
//
// Both backends enforce the same contract: reads return copies, list
// operations order newest-CreatedAt-first with ID ascending as the tiebreak,
// and cross-owner lookups are indistinguishable from missing records.
//
// Timestamps are persisted as RFC 3339 UTC strings so lexicographic ordering
// in SQL matches chronological ordering exactly.
package storage

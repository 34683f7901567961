// Package search defines the core data model for persisted property searches
// and the contracts the rest of the system builds on.
//
// # Architecture
//
// The search system consists of four layers:
//
//  1. Normalizer (pkg/search/normalize) - canonicalizes raw provider payloads
//  2. Record Store (pkg/search/storage) - durable, owner-scoped persistence
//  3. Export Engine (pkg/search/export) - stateless multi-format encoders
//  4. Analytics (pkg/search/analytics) - read-only statistics over the store
//
// # Data Flow
//
//	Provider payload
//	     ↓
//	Normalizer (sort tax history, default unknowns, preserve raw extras)
//	     ↓
//	Store.RecordSearch (synchronous, durable before return)
//	     ↓
//	Store.ListSearches / GetSearch
//	     ↓
//	Exporter (json / csv / xlsx workbook / pdf report)
//
// # Ownership
//
// Every operation is scoped by owner. Reads return copies, never live
// references, so all mutation flows through the store's write operations.
// Cross-owner lookups and deletions report NotFound, identical to a record
// that never existed.
//
// # Errors
//
// Operations return typed errors the caller must handle: NotFoundError,
// ConflictError, ValidationError, PartialFailureError, StorageError and
// ExportError. Nothing retries automatically; all operations are
// local-storage calls with no inherent transient-failure expectation.
package search

package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the search database schema.
//
// searches.address_index is a lowercased newline-joined list of every hit
// address in the record, maintained on write so the address substring filter
// is a single LIKE over one column.
const Schema = `
-- Search executions (append-only; one row per executed search)
CREATE TABLE IF NOT EXISTS searches (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    criteria TEXT NOT NULL,
    results TEXT NOT NULL,
    result_count INTEGER NOT NULL,
    address_index TEXT NOT NULL,
    created_at TEXT NOT NULL
);

-- Named search templates
CREATE TABLE IF NOT EXISTS templates (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    name TEXT NOT NULL,
    name_ci TEXT NOT NULL,
    criteria TEXT NOT NULL,
    auto_notify INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    results_count INTEGER NOT NULL DEFAULT 0,
    last_run TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_searches_owner_created ON searches(owner, created_at DESC, id ASC);
CREATE INDEX IF NOT EXISTS idx_searches_created ON searches(created_at);
CREATE INDEX IF NOT EXISTS idx_templates_owner ON templates(owner, created_at DESC, id ASC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_owner_name ON templates(owner, name_ci);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

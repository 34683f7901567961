package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"parcelhq/atlas/pkg/search"
)

// SQLiteConfig contains configuration for the SQLite record store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/searches.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements the search.Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	// now is the clock used for CreatedAt assignment; replaced in tests.
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite record store.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}

	logger := slog.Default().With("component", "search.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite record store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return search.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return search.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return search.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return search.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return search.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return search.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// RecordSearch persists one search execution. The write is synchronous and
// durable before the call returns.
func (s *SQLiteStore) RecordSearch(ctx context.Context, owner string, criteria map[string]any, results []search.PropertyHit) (*search.SearchRecord, error) {
	if err := validateRecordInput(owner, criteria); err != nil {
		return nil, err
	}
	if results == nil {
		results = []search.PropertyHit{}
	}

	record := &search.SearchRecord{
		ID:        uuid.New().String(),
		Owner:     owner,
		Criteria:  criteria,
		Results:   results,
		CreatedAt: s.now(),
	}

	criteriaJSON, err := json.Marshal(record.Criteria)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "record_search", err)
	}
	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "record_search", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO searches (id, owner, criteria, results, result_count, address_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Owner, string(criteriaJSON), string(resultsJSON),
		len(record.Results), addressIndex(record.Results), formatTime(record.CreatedAt),
	)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "record_search", err)
	}

	s.logger.Debug("search recorded",
		"record_id", record.ID,
		"owner", owner,
		"result_count", len(record.Results),
	)

	return record, nil
}

// ListSearches returns the owner's records matching the filter, newest first
// with ID ascending as the tiebreak.
func (s *SQLiteStore) ListSearches(ctx context.Context, owner string, filter *search.Filter) ([]*search.SearchRecord, error) {
	where, args := searchWhere(owner, filter)

	query := "SELECT id, owner, criteria, results, created_at FROM searches WHERE " + where +
		" ORDER BY created_at DESC, id ASC"

	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	} else if filter != nil && filter.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "list_searches", err)
	}
	defer rows.Close()

	records := []*search.SearchRecord{}
	for rows.Next() {
		record, err := scanSearch(rows)
		if err != nil {
			return nil, search.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, search.NewStorageError("sqlite", "list_searches", err)
	}

	return records, nil
}

// GetSearch returns one record, owner-scoped.
func (s *SQLiteStore) GetSearch(ctx context.Context, owner, id string) (*search.SearchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner, criteria, results, created_at FROM searches WHERE owner = ? AND id = ?",
		owner, id,
	)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "get_search", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, search.NewStorageError("sqlite", "get_search", err)
		}
		return nil, search.NewNotFoundError("search", owner, id)
	}

	record, err := scanSearch(rows)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "scan", err)
	}
	return record, nil
}

// DeleteSearch removes one record. A missing id and a cross-owner id are the
// same NotFoundError.
func (s *SQLiteStore) DeleteSearch(ctx context.Context, owner, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM searches WHERE owner = ? AND id = ?", owner, id)
	if err != nil {
		return search.NewStorageError("sqlite", "delete_search", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return search.NewStorageError("sqlite", "delete_search", err)
	}
	if affected == 0 {
		return search.NewNotFoundError("search", owner, id)
	}
	return nil
}

// CountSearches returns the number of records matching the filter,
// ignoring pagination.
func (s *SQLiteStore) CountSearches(ctx context.Context, owner string, filter *search.Filter) (int64, error) {
	where, args := searchWhere(owner, filter)

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM searches WHERE "+where, args...,
	).Scan(&count)
	if err != nil {
		return 0, search.NewStorageError("sqlite", "count_searches", err)
	}
	return count, nil
}

// PruneSearches deletes every record created before the cutoff, across all
// owners. Used by retention enforcement.
func (s *SQLiteStore) PruneSearches(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM searches WHERE created_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, search.NewStorageError("sqlite", "prune_searches", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, search.NewStorageError("sqlite", "prune_searches", err)
	}
	return count, nil
}

// CapSearches keeps only the newest maxRecords records across all owners.
func (s *SQLiteStore) CapSearches(ctx context.Context, maxRecords int64) (int64, error) {
	if maxRecords < 0 {
		return 0, search.NewValidationError("maxRecords", "must not be negative")
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM searches WHERE id NOT IN (
			SELECT id FROM searches ORDER BY created_at DESC, id ASC LIMIT ?
		)`, maxRecords)
	if err != nil {
		return 0, search.NewStorageError("sqlite", "cap_searches", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, search.NewStorageError("sqlite", "cap_searches", err)
	}
	return count, nil
}

// SaveTemplate creates a named template. The owner+lowercased-name unique
// index backs the conflict check under concurrency.
func (s *SQLiteStore) SaveTemplate(ctx context.Context, owner, name string, criteria map[string]any, autoNotify bool) (*search.SavedTemplate, error) {
	if err := validateRecordInput(owner, criteria); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, search.NewValidationError("name", "template name must not be empty")
	}

	taken, err := s.templateNameTaken(ctx, owner, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, search.NewConflictError(owner, name)
	}

	template := &search.SavedTemplate{
		ID:         uuid.New().String(),
		Owner:      owner,
		Name:       name,
		Criteria:   criteria,
		AutoNotify: autoNotify,
		CreatedAt:  s.now(),
	}

	criteriaJSON, err := json.Marshal(template.Criteria)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "save_template", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (id, owner, name, name_ci, criteria, auto_notify, created_at, results_count, last_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL)`,
		template.ID, template.Owner, template.Name, strings.ToLower(template.Name),
		string(criteriaJSON), template.AutoNotify, formatTime(template.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, search.NewConflictError(owner, name)
		}
		return nil, search.NewStorageError("sqlite", "save_template", err)
	}

	return template, nil
}

// UpdateTemplate renames a template and/or replaces its criteria and notify
// flag. Conflict semantics match SaveTemplate; the template's own name does
// not conflict with itself.
func (s *SQLiteStore) UpdateTemplate(ctx context.Context, owner, id, name string, criteria map[string]any, autoNotify bool) (*search.SavedTemplate, error) {
	if err := validateRecordInput(owner, criteria); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, search.NewValidationError("name", "template name must not be empty")
	}

	taken, err := s.templateNameTaken(ctx, owner, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, search.NewConflictError(owner, name)
	}

	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "update_template", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE templates SET name = ?, name_ci = ?, criteria = ?, auto_notify = ?
		WHERE owner = ? AND id = ?`,
		name, strings.ToLower(name), string(criteriaJSON), autoNotify, owner, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, search.NewConflictError(owner, name)
		}
		return nil, search.NewStorageError("sqlite", "update_template", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, search.NewStorageError("sqlite", "update_template", err)
	}
	if affected == 0 {
		return nil, search.NewNotFoundError("template", owner, id)
	}

	return s.getTemplate(ctx, owner, id)
}

// TouchTemplate records the outcome of a template-driven execution.
func (s *SQLiteStore) TouchTemplate(ctx context.Context, owner, id string, resultsCount int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE templates SET results_count = ?, last_run = ?
		WHERE owner = ? AND id = ?`,
		resultsCount, formatTime(s.now()), owner, id,
	)
	if err != nil {
		return search.NewStorageError("sqlite", "touch_template", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return search.NewStorageError("sqlite", "touch_template", err)
	}
	if affected == 0 {
		return search.NewNotFoundError("template", owner, id)
	}
	return nil
}

// ListTemplates returns the owner's templates, newest first with ID ascending
// as the tiebreak.
func (s *SQLiteStore) ListTemplates(ctx context.Context, owner string) ([]*search.SavedTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, name, criteria, auto_notify, created_at, results_count, last_run
		FROM templates WHERE owner = ?
		ORDER BY created_at DESC, id ASC`, owner)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "list_templates", err)
	}
	defer rows.Close()

	templates := []*search.SavedTemplate{}
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, search.NewStorageError("sqlite", "scan", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, search.NewStorageError("sqlite", "list_templates", err)
	}

	return templates, nil
}

// DeleteTemplate removes one template with the same NotFound semantics as
// DeleteSearch.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, owner, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM templates WHERE owner = ? AND id = ?", owner, id)
	if err != nil {
		return search.NewStorageError("sqlite", "delete_template", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return search.NewStorageError("sqlite", "delete_template", err)
	}
	if affected == 0 {
		return search.NewNotFoundError("template", owner, id)
	}
	return nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return search.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite record store closed")
	return nil
}

func (s *SQLiteStore) getTemplate(ctx context.Context, owner, id string) (*search.SavedTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, name, criteria, auto_notify, created_at, results_count, last_run
		FROM templates WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "get_template", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, search.NewStorageError("sqlite", "get_template", err)
		}
		return nil, search.NewNotFoundError("template", owner, id)
	}

	template, err := scanTemplate(rows)
	if err != nil {
		return nil, search.NewStorageError("sqlite", "scan", err)
	}
	return template, nil
}

func (s *SQLiteStore) templateNameTaken(ctx context.Context, owner, name, excludeID string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM templates WHERE owner = ? AND name_ci = ? AND id != ?",
		owner, strings.ToLower(name), excludeID,
	).Scan(&count)
	if err != nil {
		return false, search.NewStorageError("sqlite", "template_name_check", err)
	}
	return count > 0, nil
}

// searchWhere builds the WHERE clause shared by list/count queries.
func searchWhere(owner string, filter *search.Filter) (string, []interface{}) {
	conditions := []string{"owner = ?"}
	args := []interface{}{owner}

	if filter == nil {
		return conditions[0], args
	}

	if filter.AddressContains != "" {
		conditions = append(conditions, "address_index LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.AddressContains)+"%")
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.Until != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, formatTime(*filter.Until))
	}

	return strings.Join(conditions, " AND "), args
}

// scanSearch scans a database row into a SearchRecord.
func scanSearch(rows *sql.Rows) (*search.SearchRecord, error) {
	var record search.SearchRecord
	var criteriaJSON, resultsJSON, createdAt string

	if err := rows.Scan(&record.ID, &record.Owner, &criteriaJSON, &resultsJSON, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(criteriaJSON), &record.Criteria); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(resultsJSON), &record.Results); err != nil {
		return nil, err
	}
	if record.Results == nil {
		record.Results = []search.PropertyHit{}
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = t

	return &record, nil
}

// scanTemplate scans a database row into a SavedTemplate.
func scanTemplate(rows *sql.Rows) (*search.SavedTemplate, error) {
	var template search.SavedTemplate
	var criteriaJSON, createdAt string
	var lastRun sql.NullString

	if err := rows.Scan(&template.ID, &template.Owner, &template.Name, &criteriaJSON,
		&template.AutoNotify, &createdAt, &template.ResultsCount, &lastRun); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(criteriaJSON), &template.Criteria); err != nil {
		return nil, err
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	template.CreatedAt = t

	if lastRun.Valid {
		lr, err := parseTime(lastRun.String)
		if err != nil {
			return nil, err
		}
		template.LastRun = &lr
	}

	return &template, nil
}

// validateRecordInput enforces the shared invariants: a non-empty owner and
// non-empty criteria.
func validateRecordInput(owner string, criteria map[string]any) error {
	if owner == "" {
		return search.NewValidationError("owner", "owner must not be empty")
	}
	if len(criteria) == 0 {
		return search.NewValidationError("criteria", "criteria must not be empty")
	}
	return nil
}

// addressIndex builds the lowercased address blob backing the substring
// filter.
func addressIndex(results []search.PropertyHit) string {
	addresses := make([]string, 0, len(results))
	for _, hit := range results {
		addresses = append(addresses, strings.ToLower(hit.Address))
	}
	return strings.Join(addresses, "\n")
}

// timeLayout is RFC 3339 with fixed-width (zero-padded) nanoseconds.
// Fixed width keeps lexicographic order on the stored form identical to
// chronological order, which the DESC ordering and range filters rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// isUniqueViolation detects the unique-index failure backing the template
// name conflict check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package search

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a reference to a record or template that does not
// exist for the requesting owner. A record owned by someone else produces the
// same error as a record that was never created, so existence is never
// disclosed across owners.
type NotFoundError struct {
	Kind  string // "search" or "template"
	Owner string
	ID    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found for owner %s", e.Kind, e.ID, e.Owner)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, owner, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, Owner: owner, ID: id}
}

// ConflictError reports a duplicate template name for an owner. Names are
// compared case-insensitively.
type ConflictError struct {
	Owner string
	Name  string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("template name %q already exists for owner %s", e.Name, e.Owner)
}

// NewConflictError creates a new ConflictError.
func NewConflictError(owner, name string) *ConflictError {
	return &ConflictError{Owner: owner, Name: name}
}

// ValidationError reports malformed input: empty criteria, topN < 1, a bulk
// report request, or a bulk call over the record cap.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ItemError pairs a failing id with its error inside a PartialFailureError.
type ItemError struct {
	ID  string
	Err error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

// Unwrap returns the underlying cause error.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// PartialFailureError reports a bulk operation where some items succeeded and
// some failed. It enumerates exactly which ids landed on each side; a bulk
// caller never receives a single opaque failure for the whole batch.
// Items that succeeded before a failure stay applied and are not rolled back.
type PartialFailureError struct {
	Operation string // "delete", "export"
	Succeeded []string
	Failed    []ItemError
}

// Error implements the error interface.
func (e *PartialFailureError) Error() string {
	failed := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		failed = append(failed, f.ID)
	}
	return fmt.Sprintf("bulk %s partially failed: %d succeeded, %d failed [%s]",
		e.Operation, len(e.Succeeded), len(e.Failed), strings.Join(failed, ", "))
}

// NewPartialFailureError creates a new PartialFailureError.
func NewPartialFailureError(operation string, succeeded []string, failed []ItemError) *PartialFailureError {
	return &PartialFailureError{Operation: operation, Succeeded: succeeded, Failed: failed}
}

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "record_search", "list_searches", etc.
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// ExportError represents an error during export encoding.
type ExportError struct {
	Format      Format
	RecordCount int
	Cause       error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, record_count=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format Format, recordCount int, cause error) *ExportError {
	return &ExportError{Format: format, RecordCount: recordCount, Cause: cause}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

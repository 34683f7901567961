package search

import "context"

// BulkDelete deletes the given search records for an owner as a sequence of
// independent single-record deletes. There is no cross-record transaction: a
// failure partway through leaves previously-deleted records deleted.
//
// When every delete succeeds it returns the succeeded ids and a nil error.
// On any failure it returns a PartialFailureError enumerating exactly which
// ids succeeded and which failed with what error.
func BulkDelete(ctx context.Context, store Store, owner string, ids []string) ([]string, error) {
	var succeeded []string
	var failed []ItemError

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			failed = append(failed, ItemError{ID: id, Err: err})
			continue
		}
		if err := store.DeleteSearch(ctx, owner, id); err != nil {
			failed = append(failed, ItemError{ID: id, Err: err})
			continue
		}
		succeeded = append(succeeded, id)
	}

	if len(failed) > 0 {
		return succeeded, NewPartialFailureError("delete", succeeded, failed)
	}
	return succeeded, nil
}

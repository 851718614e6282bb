package sqlite

import (
	"fmt"
	"strings"
)

// BatchUpsertError reports the record that stopped a batched write. The
// whole batch was rolled back.
type BatchUpsertError struct {
	FailedID int64
	Total    int
	Err      error
}

func (e *BatchUpsertError) Error() string {
	return fmt.Sprintf("batch upsert failed at project %d of %d records: %v", e.FailedID, e.Total, e.Err)
}

func (e *BatchUpsertError) Unwrap() error {
	return e.Err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

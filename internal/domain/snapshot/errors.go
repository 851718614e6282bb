package snapshot

import "errors"

// ErrSnapshotNotFound indicates no tracking record exists for the project.
var ErrSnapshotNotFound = errors.New("snapshot not found")

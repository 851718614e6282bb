package snapshot

import "context"

// Store persists snapshot records keyed by project id. Writes are always
// whole batches of partial records; fields absent from a patch are left as
// stored.
type Store interface {
	Query(ctx context.Context, filter Filter) ([]Record, error)
	Get(ctx context.Context, projectID int64) (*Record, error)
	UpsertBatch(ctx context.Context, patches map[int64]Patch) error
}

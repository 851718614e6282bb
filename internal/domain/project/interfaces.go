package project

import (
	"context"
	"time"
)

// Source reads the system-of-record projects table and writes back status
// changes decided by the lifecycle policy.
type Source interface {
	ListProjects(ctx context.Context) ([]Project, error)
	// SetStatus updates the platform status. A nil inactiveAt clears the
	// platform's scheduled inactivity timestamp.
	SetStatus(ctx context.Context, id int64, status Status, inactiveAt *time.Time) error
}

package activity

import (
	"context"
	"time"
)

// Repository provides persistence operations for audit entries.
type Repository interface {
	Log(ctx context.Context, entry *Entry) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
}

// Reader answers questions about the platform's own activity log.
type Reader interface {
	// CountEventsInWindow counts events for the project in [windowEnd-window, windowEnd].
	CountEventsInWindow(ctx context.Context, projectID int64, windowEnd time.Time, window time.Duration) (int, error)
	// MostRecentActor returns the eligible user with the latest event on the
	// project, or "" when none of them appears in the log.
	MostRecentActor(ctx context.Context, projectID int64, eligible []string) (string, error)
}

// Sink appends audit entries. Service implements it.
type Sink interface {
	Append(ctx context.Context, category Category, message string, projectID int64) error
}

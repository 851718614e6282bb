package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// CountEventsInWindow counts log events for the project between
// windowEnd-window and windowEnd inclusive.
func (db *DB) CountEventsInWindow(ctx context.Context, projectID int64, windowEnd time.Time, window time.Duration) (int, error) {
	start := time.Now()

	var n int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM log_events
		WHERE project_id = $1 AND ts BETWEEN $2 AND $3
	`, projectID, windowEnd.Add(-window), windowEnd).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count log events: %w", err)
	}

	db.timed("CountEventsInWindow", start, "project_id", projectID, "count", n)
	return n, nil
}

// MostRecentActor returns whichever eligible user logged the latest event on
// the project, or "" when none did.
func (db *DB) MostRecentActor(ctx context.Context, projectID int64, eligible []string) (string, error) {
	if len(eligible) == 0 {
		return "", nil
	}

	var username string
	err := db.Pool.QueryRow(ctx, `
		SELECT username FROM log_events
		WHERE project_id = $1 AND username = ANY($2)
		ORDER BY ts DESC, log_event_id DESC
		LIMIT 1
	`, projectID, eligible).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find most recent actor: %w", err)
	}
	return username, nil
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
)

// NoticeLedger implements lifecycle.Ledger for SQLite
type NoticeLedger struct {
	db  *DB
	now func() time.Time
}

// NewNoticeLedger creates a new NoticeLedger
func NewNoticeLedger(db *DB) *NoticeLedger {
	return &NoticeLedger{db: db, now: time.Now}
}

// SupersedeOpen closes every open notice for the project
func (l *NoticeLedger) SupersedeOpen(ctx context.Context, projectID int64) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE user_notices SET superseded = 1
		WHERE project_id = ? AND superseded = 0 AND acknowledged = 0
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to supersede notices: %w", err)
	}
	return nil
}

// CreateInstance records a new open notice for one user
func (l *NoticeLedger) CreateInstance(ctx context.Context, projectID int64, username, reason string, at time.Time) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO user_notices (id, project_id, username, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), projectID, username, reason, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to create notice: %w", err)
	}
	return nil
}

// ListOpen returns the user's open notices, newest first
func (l *NoticeLedger) ListOpen(ctx context.Context, username string) ([]lifecycle.Notice, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, project_id, username, reason, created_at, superseded, acknowledged
		FROM user_notices
		WHERE username = ? AND superseded = 0 AND acknowledged = 0
		ORDER BY created_at DESC, project_id
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", err)
	}
	defer rows.Close()

	notices := []lifecycle.Notice{}
	for rows.Next() {
		var n lifecycle.Notice
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Username, &n.Reason, &n.CreatedAt, &n.Superseded, &n.Acknowledged); err != nil {
			return nil, fmt.Errorf("failed to scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notice rows: %w", err)
	}
	return notices, nil
}

// Acknowledge closes the user's open notices for the project
func (l *NoticeLedger) Acknowledge(ctx context.Context, username string, projectID int64) (int, error) {
	result, err := l.db.ExecContext(ctx, `
		UPDATE user_notices SET acknowledged = 1, acknowledged_at = ?
		WHERE username = ? AND project_id = ? AND superseded = 0 AND acknowledged = 0
	`, l.now().UTC(), username, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to acknowledge notices: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to acknowledge notices: %w", err)
	}
	return int(n), nil
}

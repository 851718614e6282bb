package lifecycle

import (
	"context"
	"time"
)

// Notice tells one project user that the monitor retired their project.
type Notice struct {
	ID           string    `json:"id"`
	ProjectID    int64     `json:"project_id"`
	Username     string    `json:"username"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
	Superseded   bool      `json:"superseded"`
	Acknowledged bool      `json:"acknowledged"`
}

// Ledger stores notices. Open means neither superseded nor acknowledged.
type Ledger interface {
	SupersedeOpen(ctx context.Context, projectID int64) error
	CreateInstance(ctx context.Context, projectID int64, username, reason string, at time.Time) error
	ListOpen(ctx context.Context, username string) ([]Notice, error)
	// Acknowledge closes the user's open notices for the project and returns
	// how many it closed.
	Acknowledge(ctx context.Context, username string, projectID int64) (int, error)
}

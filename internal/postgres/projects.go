package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/projmon/internal/domain/project"
)

// ListProjects reads every project row. A row with a deletion date reports
// MarkedDeleted whatever its stored status.
func (db *DB) ListProjects(ctx context.Context) ([]project.Project, error) {
	start := time.Now()

	// SAFETY: no user input reaches this query.
	query := fmt.Sprintf(`
		SELECT
			project_id, creation_time, app_title,
			COALESCE(purpose, ''), COALESCE(project_irb_number, ''), COALESCE(project_pi_alias, ''),
			CASE WHEN date_deleted IS NULL THEN status ELSE %d END,
			last_logged_event
		FROM projects
		ORDER BY project_id ASC
	`, int(project.StatusMarkedDeleted))

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		var p project.Project
		var status int
		if err := rows.Scan(
			&p.ID,
			&p.CreatedAt,
			&p.Title,
			&p.Purpose,
			&p.IRBNumber,
			&p.PrincipalInvestigator,
			&status,
			&p.LastLogEntryAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Status = project.Status(status)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	db.timed("ListProjects", start, "count", len(projects))
	return projects, nil
}

// SetStatus writes a status back to the platform. A nil inactiveAt clears
// the platform's inactivity timestamp.
func (db *DB) SetStatus(ctx context.Context, projectID int64, status project.Status, inactiveAt *time.Time) error {
	if !status.Valid() {
		return project.ErrInvalidStatus
	}
	start := time.Now()

	tag, err := db.Pool.Exec(ctx,
		`UPDATE projects SET status = $2, inactive_time = $3 WHERE project_id = $1`,
		projectID, int(status), inactiveAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}

	db.timed("SetStatus", start, "project_id", projectID, "status", status.String())
	return nil
}

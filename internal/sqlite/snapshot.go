package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// SnapshotRepository implements snapshot.Store for SQLite
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = `
	project_id, created_at, title, purpose, irb_number, principal_investigator,
	status, last_log_entry_at, last_updated_at, log_count_last_3_months,
	inactive_transitioned_at, contact_username, contact_first_name,
	contact_last_name, contact_email, contact_phone, contact_assigned_at,
	contact_finalized, contact_notified`

// Get returns the snapshot of one project
func (r *SnapshotRepository) Get(ctx context.Context, projectID int64) (*snapshot.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM project_snapshots WHERE project_id = ?`, projectID)
	rec, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, snapshot.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return rec, nil
}

// Query returns snapshots matching the filter, ordered by project id
func (r *SnapshotRepository) Query(ctx context.Context, filter snapshot.Filter) ([]snapshot.Record, error) {
	query := `SELECT ` + snapshotColumns + ` FROM project_snapshots`

	args := []interface{}{}
	conditions := []string{}

	if len(filter.IDs) > 0 {
		conditions = append(conditions, "project_id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, int(s))
		}
	}
	if filter.ContactUsername != "" {
		conditions = append(conditions, "contact_username = ?")
		args = append(args, filter.ContactUsername)
	}
	if filter.PendingNotification {
		conditions = append(conditions,
			"contact_username IS NOT NULL",
			"contact_finalized = 1",
			"contact_notified = 0",
		)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY project_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []snapshot.Record
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return records, nil
}

// UpsertBatch writes every patch in one transaction, in project id order.
// Only the columns a patch sets are written. On failure nothing is
// committed and a *BatchUpsertError names the record that failed.
func (r *SnapshotRepository) UpsertBatch(ctx context.Context, patches map[int64]snapshot.Patch) error {
	if len(patches) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		cols := patchColumns(patches[id])
		if len(cols) == 0 {
			continue
		}
		query, args := upsertStatement(id, cols)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &BatchUpsertError{FailedID: id, Total: len(ids), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

type column struct {
	name  string
	value interface{}
}

func patchColumns(p snapshot.Patch) []column {
	var cols []column
	if p.CreatedAt != nil {
		cols = append(cols, column{"created_at", p.CreatedAt.UTC()})
	}
	if p.Title != nil {
		cols = append(cols, column{"title", *p.Title})
	}
	if p.Purpose != nil {
		cols = append(cols, column{"purpose", *p.Purpose})
	}
	if p.IRBNumber != nil {
		cols = append(cols, column{"irb_number", *p.IRBNumber})
	}
	if p.PrincipalInvestigator != nil {
		cols = append(cols, column{"principal_investigator", *p.PrincipalInvestigator})
	}
	if p.Status != nil {
		cols = append(cols, column{"status", int(*p.Status)})
	}
	if p.LastLogEntryAt != nil {
		cols = append(cols, column{"last_log_entry_at", nullTime(*p.LastLogEntryAt)})
	}
	if p.LastUpdatedAt != nil {
		cols = append(cols, column{"last_updated_at", p.LastUpdatedAt.UTC()})
	}
	if p.LogCountLast3Months != nil {
		cols = append(cols, column{"log_count_last_3_months", *p.LogCountLast3Months})
	}
	if p.InactiveTransitionedAt != nil {
		cols = append(cols, column{"inactive_transitioned_at", nullTime(*p.InactiveTransitionedAt)})
	}
	if c := p.Contact; c != nil {
		notified := c.Notified
		if p.ContactNotified != nil {
			notified = *p.ContactNotified
		}
		cols = append(cols,
			column{"contact_username", c.Username},
			column{"contact_first_name", c.FirstName},
			column{"contact_last_name", c.LastName},
			column{"contact_email", c.Email},
			column{"contact_phone", c.Phone},
			column{"contact_assigned_at", c.AssignedAt.UTC()},
			column{"contact_finalized", c.Finalized},
			column{"contact_notified", notified},
		)
	} else if p.ContactNotified != nil {
		cols = append(cols, column{"contact_notified", *p.ContactNotified})
	}
	return cols
}

func upsertStatement(id int64, cols []column) (string, []interface{}) {
	names := make([]string, 0, len(cols)+1)
	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+1)

	names = append(names, "project_id")
	args = append(args, id)
	for _, c := range cols {
		names = append(names, c.name)
		sets = append(sets, c.name+" = excluded."+c.name)
		args = append(args, c.value)
	}

	query := `INSERT INTO project_snapshots (` + strings.Join(names, ", ") + `)
		VALUES (` + placeholders(len(names)) + `)
		ON CONFLICT(project_id) DO UPDATE SET ` + strings.Join(sets, ", ")
	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*snapshot.Record, error) {
	var rec snapshot.Record
	var (
		createdAt, lastLog, lastUpdated, inactiveAt, assignedAt sql.NullTime
		username, first, last, email, phone                     sql.NullString
		status                                                  int
		finalized, notified                                     bool
	)
	if err := row.Scan(
		&rec.ProjectID,
		&createdAt,
		&rec.Title,
		&rec.Purpose,
		&rec.IRBNumber,
		&rec.PrincipalInvestigator,
		&status,
		&lastLog,
		&lastUpdated,
		&rec.LogCountLast3Months,
		&inactiveAt,
		&username,
		&first,
		&last,
		&email,
		&phone,
		&assignedAt,
		&finalized,
		&notified,
	); err != nil {
		return nil, err
	}

	rec.Status = project.Status(status)
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	rec.LastLogEntryAt = timePtr(lastLog)
	rec.LastUpdatedAt = timePtr(lastUpdated)
	rec.InactiveTransitionedAt = timePtr(inactiveAt)

	if username.Valid && username.String != "" {
		rec.Contact = &snapshot.Contact{
			Username:  username.String,
			FirstName: first.String,
			LastName:  last.String,
			Email:     email.String,
			Phone:     phone.String,
			Finalized: finalized,
			Notified:  notified,
		}
		if assignedAt.Valid {
			rec.Contact.AssignedAt = assignedAt.Time
		}
	}
	return &rec, nil
}

func nullTime(nt sql.NullTime) interface{} {
	if !nt.Valid {
		return nil
	}
	return nt.Time.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

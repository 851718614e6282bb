package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/project"
)

// unexpired restricts user_rights rows to current grants.
const unexpired = `(ur.expiration IS NULL OR ur.expiration > NOW())`

// UsersWithElevatedRights lists users holding the user-rights privilege on
// the project.
func (db *DB) UsersWithElevatedRights(ctx context.Context, projectID int64) ([]string, error) {
	return db.usernames(ctx, `
		SELECT ur.username FROM user_rights ur
		WHERE ur.project_id = $1 AND ur.user_rights = 1 AND `+unexpired+`
		ORDER BY ur.username
	`, projectID)
}

// ProjectUsers lists every user with current rights on the project.
func (db *DB) ProjectUsers(ctx context.Context, projectID int64) ([]string, error) {
	return db.usernames(ctx, `
		SELECT ur.username FROM user_rights ur
		WHERE ur.project_id = $1 AND `+unexpired+`
		ORDER BY ur.username
	`, projectID)
}

func (db *DB) usernames(ctx context.Context, query string, projectID int64) ([]string, error) {
	rows, err := db.Pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project users: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan project users: %w", err)
	}
	return names, nil
}

// Creator returns the account that created the project, or nil when the
// creator is unknown.
func (db *DB) Creator(ctx context.Context, projectID int64) (*directory.User, error) {
	var u directory.User
	err := db.Pool.QueryRow(ctx, `
		SELECT ui.username, COALESCE(ui.user_firstname, ''), COALESCE(ui.user_lastname, ''),
			COALESCE(ui.user_email, ''), COALESCE(ui.user_phone, '')
		FROM projects p
		JOIN user_information ui ON ui.ui_id = p.created_by
		WHERE p.project_id = $1
	`, projectID).Scan(&u.Username, &u.FirstName, &u.LastName, &u.Email, &u.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up creator: %w", err)
	}
	return &u, nil
}

// LookupUsers returns account details keyed by username.
func (db *DB) LookupUsers(ctx context.Context, usernames []string) (map[string]directory.User, error) {
	out := make(map[string]directory.User, len(usernames))
	if len(usernames) == 0 {
		return out, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT username, COALESCE(user_firstname, ''), COALESCE(user_lastname, ''),
			COALESCE(user_email, ''), COALESCE(user_phone, '')
		FROM user_information
		WHERE username = ANY($1)
	`, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u directory.User
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Email, &u.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out[u.Username] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return out, nil
}

// ArchivedProjectCount counts archived projects the user holds permanent
// rights on.
func (db *DB) ArchivedProjectCount(ctx context.Context, username string) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM projects p
		JOIN user_rights ur ON ur.project_id = p.project_id
		WHERE p.status = $2 AND ur.username = $1 AND ur.expiration IS NULL
	`, username, int(project.StatusArchived)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count archived projects: %w", err)
	}
	return n, nil
}

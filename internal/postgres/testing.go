package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// SetupTestDB connects to a test database and creates the platform tables
// the monitor reads. The schema is the subset of the platform's own.
func SetupTestDB(dbURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := runTestMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func runTestMigrations(ctx context.Context, db *DB) error {
	migrations := []string{
		`
		CREATE TABLE IF NOT EXISTS user_information (
			ui_id SERIAL PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			user_email VARCHAR(255),
			user_phone VARCHAR(50),
			user_firstname VARCHAR(255),
			user_lastname VARCHAR(255)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS projects (
			project_id INTEGER PRIMARY KEY,
			creation_time TIMESTAMPTZ NOT NULL,
			app_title TEXT NOT NULL,
			purpose TEXT,
			project_irb_number VARCHAR(255),
			project_pi_alias VARCHAR(255),
			status INTEGER NOT NULL DEFAULT 0,
			date_deleted TIMESTAMPTZ,
			last_logged_event TIMESTAMPTZ,
			created_by INTEGER REFERENCES user_information(ui_id),
			inactive_time TIMESTAMPTZ
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS user_rights (
			project_id INTEGER NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
			username VARCHAR(255) NOT NULL,
			user_rights INTEGER NOT NULL DEFAULT 0,
			expiration DATE,
			PRIMARY KEY (project_id, username)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS log_events (
			log_event_id BIGSERIAL PRIMARY KEY,
			project_id INTEGER NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			username VARCHAR(255),
			description TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_log_events_project_ts ON log_events(project_id, ts DESC);
		`,
	}

	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return err
		}
	}
	return nil
}

// CleanupTestDB truncates all platform tables. Call it at the start of each
// integration test.
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(),
		"TRUNCATE TABLE log_events, user_rights, projects, user_information RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

// TeardownTestDB closes the test database connection. Safe with nil.
func TeardownTestDB(db *DB) {
	if db != nil {
		db.Close()
	}
}

// TestEvent is one platform log event for seeding.
type TestEvent struct {
	ProjectID int64
	At        time.Time
	Username  string
}

// InsertEventsBatch seeds log events in one round trip.
func InsertEventsBatch(ctx context.Context, db *DB, events []TestEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`INSERT INTO log_events (project_id, ts, username, description) VALUES ($1, $2, $3, $4)`,
			e.ProjectID, e.At, e.Username, "seeded")
	}

	results := db.Pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for i := range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert event %d/%d: %w", i, len(events), err)
		}
	}
	return nil
}

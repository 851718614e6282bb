package mocks

import (
	"context"
	"time"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
	"github.com/stretchr/testify/mock"
)

// ProjectSource is a mock for project.Source.
type ProjectSource struct {
	mock.Mock
}

func (m *ProjectSource) ListProjects(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectSource) SetStatus(ctx context.Context, projectID int64, status project.Status, inactiveAt *time.Time) error {
	args := m.Called(ctx, projectID, status, inactiveAt)
	return args.Error(0)
}

// SnapshotStore is a mock for snapshot.Store.
type SnapshotStore struct {
	mock.Mock
}

func (m *SnapshotStore) Query(ctx context.Context, filter snapshot.Filter) ([]snapshot.Record, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]snapshot.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotStore) Get(ctx context.Context, projectID int64) (*snapshot.Record, error) {
	args := m.Called(ctx, projectID)
	if rec, ok := args.Get(0).(*snapshot.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SnapshotStore) UpsertBatch(ctx context.Context, patches map[int64]snapshot.Patch) error {
	args := m.Called(ctx, patches)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityReader is a mock for activity.Reader.
type ActivityReader struct {
	mock.Mock
}

func (m *ActivityReader) CountEventsInWindow(ctx context.Context, projectID int64, windowEnd time.Time, window time.Duration) (int, error) {
	args := m.Called(ctx, projectID, windowEnd, window)
	return args.Int(0), args.Error(1)
}

func (m *ActivityReader) MostRecentActor(ctx context.Context, projectID int64, eligible []string) (string, error) {
	args := m.Called(ctx, projectID, eligible)
	return args.String(0), args.Error(1)
}

// AuditSink is a mock for activity.Sink.
type AuditSink struct {
	mock.Mock
}

func (m *AuditSink) Append(ctx context.Context, category activity.Category, message string, projectID int64) error {
	args := m.Called(ctx, category, message, projectID)
	return args.Error(0)
}

// Directory is a mock for directory.Directory.
type Directory struct {
	mock.Mock
}

func (m *Directory) UsersWithElevatedRights(ctx context.Context, projectID int64) ([]string, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) ProjectUsers(ctx context.Context, projectID int64) ([]string, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) Creator(ctx context.Context, projectID int64) (*directory.User, error) {
	args := m.Called(ctx, projectID)
	if user, ok := args.Get(0).(*directory.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) LookupUsers(ctx context.Context, usernames []string) (map[string]directory.User, error) {
	args := m.Called(ctx, usernames)
	if users, ok := args.Get(0).(map[string]directory.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) ArchivedProjectCount(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

// NoticeLedger is a mock for lifecycle.Ledger.
type NoticeLedger struct {
	mock.Mock
}

func (m *NoticeLedger) SupersedeOpen(ctx context.Context, projectID int64) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *NoticeLedger) CreateInstance(ctx context.Context, projectID int64, username, reason string, at time.Time) error {
	args := m.Called(ctx, projectID, username, reason, at)
	return args.Error(0)
}

func (m *NoticeLedger) ListOpen(ctx context.Context, username string) ([]lifecycle.Notice, error) {
	args := m.Called(ctx, username)
	if list, ok := args.Get(0).([]lifecycle.Notice); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NoticeLedger) Acknowledge(ctx context.Context, username string, projectID int64) (int, error) {
	args := m.Called(ctx, username, projectID)
	return args.Int(0), args.Error(1)
}

// MailSender is a mock for notify.Sender.
type MailSender struct {
	mock.Mock
}

func (m *MailSender) Send(ctx context.Context, to, from, subject, htmlBody string) error {
	args := m.Called(ctx, to, from, subject, htmlBody)
	return args.Error(0)
}

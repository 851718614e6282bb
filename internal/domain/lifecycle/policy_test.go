package lifecycle_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
	"github.com/rpggio/projmon/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func TestPolicy_Decide(t *testing.T) {
	policy := lifecycle.DefaultPolicy()

	tests := []struct {
		name      string
		status    project.Status
		last      *time.Time
		wantOK    bool
		wantTo    project.Status
		wantLabel string
	}{
		{"development idle 400d", project.StatusDevelopment, daysAgo(400), true, project.StatusArchived, lifecycle.LabelArchive},
		{"production idle 400d", project.StatusProduction, daysAgo(400), true, project.StatusInactive, lifecycle.LabelInactive},
		{"production idle 10d", project.StatusProduction, daysAgo(10), false, 0, ""},
		{"development never logged", project.StatusDevelopment, nil, true, project.StatusArchived, lifecycle.LabelArchive},
		{"production never logged", project.StatusProduction, nil, true, project.StatusInactive, lifecycle.LabelInactive},
		{"inactive idle 400d", project.StatusInactive, daysAgo(400), false, 0, ""},
		{"archived idle 400d", project.StatusArchived, daysAgo(400), false, 0, ""},
		{"marked deleted", project.StatusMarkedDeleted, nil, false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := policy.Decide(tt.status, tt.last, now)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			require.Equal(t, tt.status, tr.From)
			require.Equal(t, tt.wantTo, tr.To)
			require.Equal(t, tt.wantLabel, tr.Label)
			require.Equal(t, now, tr.At)
		})
	}
}

func TestPolicy_DecideBoundary(t *testing.T) {
	policy := lifecycle.Policy{InactivityPeriod: 30 * 24 * time.Hour}

	_, ok := policy.Decide(project.StatusProduction, daysAgo(30), now)
	require.False(t, ok, "exactly at the cutoff is still active")

	_, ok = policy.Decide(project.StatusProduction, daysAgo(31), now)
	require.True(t, ok)
}

func TestTransition_Patch(t *testing.T) {
	policy := lifecycle.DefaultPolicy()

	inactive, ok := policy.Decide(project.StatusProduction, nil, now)
	require.True(t, ok)
	p := inactive.Patch()
	require.Equal(t, project.StatusInactive, *p.Status)
	require.Equal(t, sql.NullTime{Time: now, Valid: true}, *p.InactiveTransitionedAt)
	require.Equal(t, now, *p.LastUpdatedAt)

	archived, ok := policy.Decide(project.StatusDevelopment, nil, now)
	require.True(t, ok)
	p = archived.Patch()
	require.Equal(t, project.StatusArchived, *p.Status)
	require.Equal(t, sql.NullTime{Time: now, Valid: true}, *p.InactiveTransitionedAt, "archiving records when the project was retired")
	require.Nil(t, archived.InactiveAt, "the platform inactivity time is cleared")
}

func TestPolicy_NeedsRecount(t *testing.T) {
	policy := lifecycle.DefaultPolicy()
	changed := snapshot.Patch{LastLogEntryAt: snapshot.NullTimeOf(daysAgo(1))}
	title := "t"

	require.True(t, policy.NeedsRecount(project.StatusProduction, changed))
	require.True(t, policy.NeedsRecount(project.StatusDevelopment, changed))
	require.False(t, policy.NeedsRecount(project.StatusInactive, changed))
	require.False(t, policy.NeedsRecount(project.StatusProduction, snapshot.Patch{Title: &title}))
	require.False(t, policy.NeedsRecount(project.StatusProduction, snapshot.Patch{LastLogEntryAt: &sql.NullTime{}}))
}

func TestPolicy_Recount(t *testing.T) {
	ctx := context.Background()
	last := *daysAgo(2)

	reader := &mocks.ActivityReader{}
	reader.On("CountEventsInWindow", ctx, int64(9), last, lifecycle.DefaultCountWindow).Return(17, nil)

	n, err := lifecycle.Policy{}.Recount(ctx, reader, 9, last)
	require.NoError(t, err)
	require.Equal(t, 17, n)
	reader.AssertExpectations(t)
}

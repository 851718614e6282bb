package snapshot_test

import (
	"testing"
	"time"

	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
	"github.com/stretchr/testify/require"
)

func liveProject() project.Project {
	last := time.Date(2025, 6, 1, 9, 30, 0, 123456789, time.UTC)
	return project.Project{
		ID:                    12,
		CreatedAt:             time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		Title:                 "Cohort study",
		Purpose:               "research",
		IRBNumber:             "IRB-1",
		PrincipalInvestigator: "Dr. Who",
		Status:                project.StatusProduction,
		LastLogEntryAt:        &last,
	}
}

func recordFor(p project.Project) *snapshot.Record {
	rec := &snapshot.Record{
		ProjectID:             p.ID,
		CreatedAt:             p.CreatedAt,
		Title:                 p.Title,
		Purpose:               p.Purpose,
		IRBNumber:             p.IRBNumber,
		PrincipalInvestigator: p.PrincipalInvestigator,
		Status:                p.Status,
	}
	if p.LastLogEntryAt != nil {
		// stored at microsecond precision
		t := p.LastLogEntryAt.Truncate(time.Microsecond)
		rec.LastLogEntryAt = &t
	}
	return rec
}

func TestDiff_NewProjectYieldsFullRecord(t *testing.T) {
	live := liveProject()
	p := snapshot.Diff(live, nil)

	require.Equal(t, []string{
		"created_at", "title", "purpose", "irb_number",
		"principal_investigator", "status", "last_log_entry_at",
	}, p.Fields())
	require.Equal(t, live.Title, *p.Title)
	require.True(t, p.LastLogEntryAt.Valid)
}

func TestDiff_UnchangedIsEmpty(t *testing.T) {
	live := liveProject()
	require.True(t, snapshot.Diff(live, recordFor(live)).IsEmpty())
}

func TestDiff_ChangedFieldsOnly(t *testing.T) {
	live := liveProject()
	rec := recordFor(live)

	live.Title = "Renamed"
	live.Status = project.StatusInactive
	p := snapshot.Diff(live, rec)

	require.Equal(t, []string{"title", "status"}, p.Fields())
	require.Equal(t, "Renamed", *p.Title)
	require.Equal(t, project.StatusInactive, *p.Status)
}

func TestDiff_LastLogEntryCleared(t *testing.T) {
	live := liveProject()
	rec := recordFor(live)

	live.LastLogEntryAt = nil
	p := snapshot.Diff(live, rec)

	require.Equal(t, []string{"last_log_entry_at"}, p.Fields())
	require.False(t, p.LastLogEntryAt.Valid)
}

func TestDiff_LastLogEntrySet(t *testing.T) {
	live := liveProject()
	rec := recordFor(live)
	rec.LastLogEntryAt = nil

	p := snapshot.Diff(live, rec)
	require.Equal(t, []string{"last_log_entry_at"}, p.Fields())
	require.True(t, p.LastLogEntryAt.Time.Equal(*live.LastLogEntryAt))
}

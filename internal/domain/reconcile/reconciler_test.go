package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/reconcile"
	"github.com/rpggio/projmon/internal/domain/snapshot"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 1, 2, 0, 0, 0, time.UTC)

func ago(days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

type harness struct {
	source *memSource
	store  *memStore
	reader *countReader
	audit  *nopAudit
	rec    *reconcile.Reconciler
}

func newHarness(source *memSource, store *memStore, resolver reconcile.ContactResolver, dense bool) *harness {
	h := &harness{source: source, store: store, reader: &countReader{count: 5}, audit: &nopAudit{}}
	h.rec = reconcile.New(reconcile.Config{
		Source:   source,
		Store:    store,
		Activity: h.reader,
		Resolver: resolver,
		Effects:  lifecycle.NewEffects(source, h.audit, nopLedger{}, noUsers{}, nil),
		Audit:    h.audit,
		Policy:   lifecycle.DefaultPolicy(),
		DenseIDs: dense,
		Now:      func() time.Time { return now },
	})
	return h
}

func live(id int64, status project.Status, last *time.Time) project.Project {
	return project.Project{
		ID:             id,
		CreatedAt:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Title:          "Project",
		Purpose:        "research",
		Status:         status,
		LastLogEntryAt: last,
	}
}

func TestReconcile_NewIdleProductionProject(t *testing.T) {
	ctx := context.Background()
	creator := &snapshot.Contact{Username: "alice", Email: "alice@example.org", Finalized: true}
	h := newHarness(newMemSource(live(42, project.StatusProduction, ago(400))), newMemStore(), fixedResolver{42: creator}, false)

	res, err := h.rec.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Transitioned)
	require.Equal(t, 1, res.Assigned)

	require.Len(t, h.store.batches, 1, "one batched write and no deletions")
	patch := h.store.batches[0][42]
	require.Equal(t, project.StatusInactive, *patch.Status)
	require.True(t, patch.InactiveTransitionedAt.Valid)
	require.Equal(t, now, patch.InactiveTransitionedAt.Time)
	require.Equal(t, "alice", patch.Contact.Username)
	require.False(t, patch.Contact.Notified)
	require.Equal(t, now, *patch.LastUpdatedAt)

	require.Equal(t, project.StatusInactive, h.source.projects[42].Status, "platform status written back")
	require.Contains(t, h.audit.entries, "Manage/Design: "+lifecycle.LabelInactive)
	require.Contains(t, h.audit.entries, "New Contact: Designated contact initially set to alice")
}

func TestReconcile_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(newMemSource(
		live(1, project.StatusProduction, ago(3)),
		live(2, project.StatusDevelopment, ago(500)),
		live(4, project.StatusProduction, ago(10)),
	), newMemStore(), fixedResolver{}, true)

	first, err := h.rec.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, first.Updated)
	require.Equal(t, 1, first.Deleted)
	require.Equal(t, 1, first.Transitioned)

	batches := len(h.store.batches)
	second, err := h.rec.Run(ctx)
	require.NoError(t, err)
	require.Zero(t, second.Updated)
	require.Zero(t, second.Deleted)
	require.Zero(t, second.Transitioned)
	require.Len(t, h.store.batches, batches, "a quiet run writes nothing")
}

func TestReconcile_AtMostOneWritePerProject(t *testing.T) {
	ctx := context.Background()
	prior := snapshot.Record{ProjectID: 7, Title: "Old", Status: project.StatusDevelopment, CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Purpose: "research"}
	p := live(7, project.StatusDevelopment, ago(700))
	p.Title = "New"
	h := newHarness(newMemSource(p), newMemStore(prior), fixedResolver{}, true)

	plan, err := h.rec.Plan(ctx)
	require.NoError(t, err)
	require.Len(t, plan.Updates, 1)

	patch := plan.Updates[7]
	require.Equal(t, "New", *patch.Title)
	require.Equal(t, project.StatusArchived, *patch.Status)
	require.True(t, patch.InactiveTransitionedAt.Valid, "archiving records when the project was retired")
	require.Equal(t, now, patch.InactiveTransitionedAt.Time)
	require.Nil(t, patch.Contact, "an existing record is never reassigned")
}

func TestReconcile_RecountOnlyWhenLastLogChanges(t *testing.T) {
	ctx := context.Background()
	p := live(3, project.StatusProduction, ago(5))
	prior := snapshot.Record{
		ProjectID: 3, CreatedAt: p.CreatedAt, Title: p.Title, Purpose: p.Purpose,
		Status: p.Status, LastLogEntryAt: ago(20),
	}
	h := newHarness(newMemSource(p), newMemStore(prior), fixedResolver{}, true)

	res, err := h.rec.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, h.reader.calls)
	require.Equal(t, 5, h.store.records[3].LogCountLast3Months)

	_, err = h.rec.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, h.reader.calls, "unchanged last log entry does not recount")
}

func TestReconcile_SnapshotGapAboveMaxLiveUntouched(t *testing.T) {
	ctx := context.Background()
	snaps := []snapshot.Record{}
	var projects []project.Project
	for _, id := range []int64{1, 2, 3} {
		p := live(id, project.StatusProduction, ago(1))
		projects = append(projects, p)
		snaps = append(snaps, snapshot.Record{
			ProjectID: id, CreatedAt: p.CreatedAt, Title: p.Title, Purpose: p.Purpose,
			Status: p.Status, LastLogEntryAt: p.LastLogEntryAt,
		})
	}
	snaps = append(snaps, snapshot.Record{ProjectID: 5, Status: project.StatusProduction})
	h := newHarness(newMemSource(projects...), newMemStore(snaps...), fixedResolver{}, true)

	plan, err := h.rec.Plan(ctx)
	require.NoError(t, err)
	require.True(t, plan.Empty())
}

func TestReconcile_FailedStatusWriteRetriedNextRun(t *testing.T) {
	ctx := context.Background()
	source := newMemSource(live(8, project.StatusProduction, ago(400)))
	source.failSet = true
	h := newHarness(source, newMemStore(), fixedResolver{}, false)

	res, err := h.rec.Run(ctx)
	require.Error(t, err)
	var runErr *reconcile.RunError
	require.ErrorAs(t, err, &runErr)
	require.Len(t, runErr.Projects, 1)
	require.ErrorIs(t, err, lifecycle.ErrStatusWrite)
	require.Zero(t, res.Transitioned)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, project.StatusProduction, h.source.projects[8].Status)
	require.Empty(t, h.audit.entries, "nothing is audited for a rejected transition")

	source.failSet = false
	res, err = h.rec.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Transitioned)
	require.Equal(t, project.StatusInactive, h.source.projects[8].Status)
	require.Equal(t, project.StatusInactive, h.store.records[8].Status)
	require.NotNil(t, h.store.records[8].InactiveTransitionedAt)
	require.Equal(t, 1, countEntries(h.audit.entries, "Manage/Design: "+lifecycle.LabelInactive))
}

func TestReconcile_FailedBatchSelfHeals(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failOn = 1
	creator := &snapshot.Contact{Username: "alice", Email: "alice@example.org", Finalized: true}
	h := newHarness(newMemSource(live(42, project.StatusProduction, ago(400))), store, fixedResolver{42: creator}, false)

	res, err := h.rec.Run(ctx)
	var runErr *reconcile.RunError
	require.ErrorAs(t, err, &runErr)
	require.Error(t, runErr.Updates)
	require.Zero(t, res.Transitioned)
	require.Zero(t, res.Assigned)
	require.Equal(t, project.StatusProduction, h.source.projects[42].Status, "platform untouched until the snapshot commits")
	require.Empty(t, h.audit.entries)

	res, err = h.rec.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Transitioned)
	require.Equal(t, 1, res.Assigned)

	rec := h.store.records[42]
	require.Equal(t, project.StatusInactive, rec.Status)
	require.NotNil(t, rec.InactiveTransitionedAt)
	require.True(t, rec.InactiveTransitionedAt.Equal(now))
	require.Equal(t, "alice", rec.Contact.Username)
	require.Equal(t, project.StatusInactive, h.source.projects[42].Status)
	require.Equal(t, 1, countEntries(h.audit.entries, "New Contact: Designated contact initially set to alice"))
	require.Equal(t, 1, countEntries(h.audit.entries, "Manage/Design: "+lifecycle.LabelInactive))
}

func TestReconcile_FailedBatchIsReported(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failOn = 1
	h := newHarness(newMemSource(live(1, project.StatusProduction, ago(1)), live(3, project.StatusProduction, ago(1))), store, fixedResolver{}, true)

	res, err := h.rec.Run(ctx)
	var runErr *reconcile.RunError
	require.ErrorAs(t, err, &runErr)
	require.Error(t, runErr.Updates)
	require.NoError(t, runErr.Deletions)
	require.Zero(t, res.Updated)
	require.Equal(t, 1, res.Deleted, "deletion sweep still runs")
	require.Len(t, store.batches, 2)
}

func TestReconcile_EmptyLiveSetSweepsNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(newMemSource(), newMemStore(snapshot.Record{ProjectID: 1, Status: project.StatusProduction}), fixedResolver{}, true)

	res, err := h.rec.Run(ctx)
	require.NoError(t, err)
	require.Zero(t, res.Deleted)
	require.Empty(t, h.store.batches)
}

func countEntries(entries []string, want string) int {
	n := 0
	for _, e := range entries {
		if e == want {
			n++
		}
	}
	return n
}

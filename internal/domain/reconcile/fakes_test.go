package reconcile_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

type memStore struct {
	mu      sync.Mutex
	records map[int64]snapshot.Record
	batches []map[int64]snapshot.Patch
	failOn  int // 1-based batch number that fails; 0 never
}

func newMemStore(recs ...snapshot.Record) *memStore {
	s := &memStore{records: make(map[int64]snapshot.Record)}
	for _, r := range recs {
		s.records[r.ProjectID] = r
	}
	return s
}

func (s *memStore) Query(_ context.Context, _ snapshot.Filter) ([]snapshot.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]snapshot.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

func (s *memStore) Get(_ context.Context, id int64) (*snapshot.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, snapshot.ErrSnapshotNotFound
	}
	return &r, nil
}

func (s *memStore) UpsertBatch(_ context.Context, patches map[int64]snapshot.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, patches)
	if s.failOn == len(s.batches) {
		return errors.New("database is locked")
	}
	for id, p := range patches {
		r, ok := s.records[id]
		if !ok {
			r = snapshot.Record{ProjectID: id}
		}
		p.Apply(&r)
		s.records[id] = r
	}
	return nil
}

type memSource struct {
	projects map[int64]project.Project
	failSet  bool
}

func newMemSource(ps ...project.Project) *memSource {
	s := &memSource{projects: make(map[int64]project.Project)}
	for _, p := range ps {
		s.projects[p.ID] = p
	}
	return s
}

func (s *memSource) ListProjects(_ context.Context) ([]project.Project, error) {
	out := make([]project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

func (s *memSource) SetStatus(_ context.Context, id int64, status project.Status, _ *time.Time) error {
	if s.failSet {
		return errors.New("platform unavailable")
	}
	p := s.projects[id]
	p.Status = status
	s.projects[id] = p
	return nil
}

type fixedResolver map[int64]*snapshot.Contact

func (f fixedResolver) Resolve(_ context.Context, id int64) (*snapshot.Contact, error) {
	c := f[id]
	if c == nil {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type countReader struct {
	calls int
	count int
}

func (c *countReader) CountEventsInWindow(_ context.Context, _ int64, _ time.Time, _ time.Duration) (int, error) {
	c.calls++
	return c.count, nil
}

func (c *countReader) MostRecentActor(_ context.Context, _ int64, _ []string) (string, error) {
	return "", nil
}

type nopAudit struct{ entries []string }

func (n *nopAudit) Append(_ context.Context, category activity.Category, message string, _ int64) error {
	n.entries = append(n.entries, string(category)+": "+message)
	return nil
}

type nopLedger struct{}

func (nopLedger) SupersedeOpen(context.Context, int64) error { return nil }
func (nopLedger) CreateInstance(context.Context, int64, string, string, time.Time) error {
	return nil
}
func (nopLedger) ListOpen(context.Context, string) ([]lifecycle.Notice, error) { return nil, nil }
func (nopLedger) Acknowledge(context.Context, string, int64) (int, error) { return 0, nil }

type noUsers struct{}

func (noUsers) ProjectUsers(context.Context, int64) ([]string, error) { return nil, nil }

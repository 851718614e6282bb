package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// ContactResolver picks the initial designated contact of a new project.
type ContactResolver interface {
	Resolve(ctx context.Context, projectID int64) (*snapshot.Contact, error)
}

// TransitionEffects carries out a transition outside the snapshot.
type TransitionEffects interface {
	Apply(ctx context.Context, projectID int64, t lifecycle.Transition) error
}

// Recorder observes finished runs.
type Recorder interface {
	ObserveRun(res Result, err error)
}

// Config wires a Reconciler.
type Config struct {
	Source   project.Source
	Store    snapshot.Store
	Activity activity.Reader
	Resolver ContactResolver
	Effects  TransitionEffects
	Audit    activity.Sink
	Policy   lifecycle.Policy
	// DenseIDs treats every id gap below the highest live id as a deletion.
	DenseIDs bool
	Recorder Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Reconciler mirrors the live project list into the snapshot store.
type Reconciler struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Result summarises an applied plan.
type Result struct {
	Live         int `json:"live"`
	Updated      int `json:"updated"`
	Deleted      int `json:"deleted"`
	Transitioned int `json:"transitioned"`
	Assigned     int `json:"assigned"`
	Failures     int `json:"failures"`
}

// New creates a reconciler.
func New(cfg Config) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{cfg: cfg, logger: logger, now: now}
}

// Run performs one full reconciliation: read, plan, apply.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	plan, err := r.Plan(ctx)
	if err != nil {
		r.observe(Result{}, err)
		return Result{}, err
	}
	res, err := r.Apply(ctx, plan)
	r.observe(res, err)
	return res, err
}

// Plan reads live and snapshot state and computes the run's writes without
// performing any of them.
func (r *Reconciler) Plan(ctx context.Context) (*Plan, error) {
	live, err := r.cfg.Source.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing live projects: %w", err)
	}
	snaps, err := r.cfg.Store.Query(ctx, snapshot.Filter{})
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	return r.Reconcile(ctx, live, snaps), nil
}

// Reconcile diffs live against snaps and merges every decision about a
// project into a single patch. Per-project failures are collected in the
// plan and never stop it.
func (r *Reconciler) Reconcile(ctx context.Context, live []project.Project, snaps []snapshot.Record) *Plan {
	now := r.now().UTC()
	plan := newPlan(now)
	plan.LiveCount = len(live)

	index := make(map[int64]snapshot.Record, len(snaps))
	for _, rec := range snaps {
		index[rec.ProjectID] = rec
	}

	sorted := make([]project.Project, len(live))
	copy(sorted, live)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	liveIDs := make([]int64, 0, len(sorted))
	for _, p := range sorted {
		liveIDs = append(liveIDs, p.ID)
		r.planProject(ctx, plan, p, index, now)
	}

	plan.Deletions = Sweep(liveIDs, index, now, r.cfg.DenseIDs)
	return plan
}

func (r *Reconciler) planProject(ctx context.Context, plan *Plan, p project.Project, index map[int64]snapshot.Record, now time.Time) {
	var prior *snapshot.Record
	if rec, ok := index[p.ID]; ok {
		prior = &rec
	}

	diff := snapshot.Diff(p, prior)
	patch := diff
	if !diff.IsEmpty() {
		at := now
		patch.LastUpdatedAt = &at
		if prior == nil {
			r.assignContact(ctx, plan, p.ID, &patch)
		}
	}

	if t, ok := r.cfg.Policy.Decide(p.Status, p.LastLogEntryAt, now); ok {
		plan.Transitions[p.ID] = t
		patch = patch.Merge(t.Patch())
	} else if r.cfg.Policy.NeedsRecount(p.Status, diff) {
		n, err := r.cfg.Policy.Recount(ctx, r.cfg.Activity, p.ID, diff.LastLogEntryAt.Time)
		if err != nil {
			r.logger.Error("log count failed", "project_id", p.ID, "error", err)
			plan.Errors = append(plan.Errors, err)
		} else {
			patch.LogCountLast3Months = &n
		}
	}

	if !patch.IsEmpty() {
		plan.Updates[p.ID] = patch
	}
}

func (r *Reconciler) assignContact(ctx context.Context, plan *Plan, projectID int64, patch *snapshot.Patch) {
	if r.cfg.Resolver == nil {
		return
	}
	c, err := r.cfg.Resolver.Resolve(ctx, projectID)
	if err != nil {
		r.logger.Error("contact lookup failed", "project_id", projectID, "error", err)
		plan.Errors = append(plan.Errors, fmt.Errorf("project %d: resolving contact: %w", projectID, err))
		return
	}
	if c == nil {
		return
	}
	patch.Contact = c
	plan.Assignments[projectID] = *c
}

// Apply carries out the plan: one batched write for updates, then the
// transition side effects and contact audit entries of the committed
// projects, then one batched write for deletions. Nothing outside the
// snapshot changes until the update batch commits, so a failed batch leaves
// the next run to reproduce the same delta. A failed batch is logged with its
// payload and reported in the returned *RunError; nothing is retried.
func (r *Reconciler) Apply(ctx context.Context, plan *Plan) (Result, error) {
	res := Result{Live: plan.LiveCount}
	runErr := &RunError{Projects: append([]error(nil), plan.Errors...)}

	if len(plan.Updates) > 0 {
		if err := r.cfg.Store.UpsertBatch(ctx, plan.Updates); err != nil {
			r.logFailedBatch("update", plan.Updates, err)
			runErr.Updates = err
		} else {
			res.Updated = len(plan.Updates)
			res.Transitioned = r.applyTransitions(ctx, plan, runErr)
			res.Assigned = r.auditAssignments(ctx, plan)
		}
	}

	if len(plan.Deletions) > 0 {
		if err := r.cfg.Store.UpsertBatch(ctx, plan.Deletions); err != nil {
			r.logFailedBatch("deletion", plan.Deletions, err)
			runErr.Deletions = err
		} else {
			res.Deleted = len(plan.Deletions)
		}
	}

	res.Failures = len(runErr.Projects)
	if runErr.Updates != nil {
		res.Failures++
	}
	if runErr.Deletions != nil {
		res.Failures++
	}

	r.logger.Info("reconciliation complete",
		"live", res.Live,
		"updated", res.Updated,
		"deleted", res.Deleted,
		"transitioned", res.Transitioned,
		"assigned", res.Assigned,
		"failures", res.Failures,
	)
	if runErr.empty() {
		return res, nil
	}
	return res, runErr
}

// applyTransitions runs the side effects of every planned transition. A
// rejected status write leaves the snapshot ahead of the platform; the next
// run sees the old live status, decides again and retries.
func (r *Reconciler) applyTransitions(ctx context.Context, plan *Plan, runErr *RunError) int {
	applied := 0
	for _, id := range sortedIDs(plan.Transitions) {
		t := plan.Transitions[id]
		if r.cfg.Effects == nil {
			applied++
			continue
		}
		err := r.cfg.Effects.Apply(ctx, id, t)
		if err == nil {
			applied++
			continue
		}
		r.logger.Error("transition side effects failed", "project_id", id, "to", t.To.String(), "error", err)
		runErr.Projects = append(runErr.Projects, err)
		if !errors.Is(err, lifecycle.ErrStatusWrite) {
			applied++
		}
	}
	return applied
}

func (r *Reconciler) auditAssignments(ctx context.Context, plan *Plan) int {
	for _, id := range sortedIDs(plan.Assignments) {
		if r.cfg.Audit == nil {
			continue
		}
		msg := "Designated contact initially set to " + plan.Assignments[id].Username
		if err := r.cfg.Audit.Append(ctx, activity.CategoryNewContact, msg, id); err != nil {
			r.logger.Error("audit contact assignment failed", "project_id", id, "error", err)
		}
	}
	return len(plan.Assignments)
}

func (r *Reconciler) logFailedBatch(kind string, patches map[int64]snapshot.Patch, err error) {
	payload, mErr := json.Marshal(patches)
	if mErr != nil {
		payload = []byte(fmt.Sprintf("unencodable payload: %v", mErr))
	}
	r.logger.Error("batched write failed",
		"kind", kind,
		"records", len(patches),
		"error", err,
		"payload", string(payload),
	)
}

func (r *Reconciler) observe(res Result, err error) {
	if r.cfg.Recorder != nil {
		r.cfg.Recorder.ObserveRun(res, err)
	}
}

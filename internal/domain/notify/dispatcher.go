package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// Options configures outgoing contact emails.
type Options struct {
	From string
	// ProjectURL is the link prefix; the project id is appended to it.
	ProjectURL string
}

// Dispatcher emails designated contacts about projects they were assigned
// and have not yet been told about.
type Dispatcher struct {
	store    snapshot.Store
	sender   Sender
	opts     Options
	recorder Recorder
	logger   *slog.Logger
}

// NewDispatcher creates a notification dispatcher. recorder may be nil.
func NewDispatcher(store snapshot.Store, sender Sender, opts Options, recorder Recorder, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, sender: sender, opts: opts, recorder: recorder, logger: logger}
}

type recipient struct {
	email   string
	name    string
	records []snapshot.Record
}

// DispatchPending sends one email per recipient listing every pending
// project, then marks those projects notified. It returns the number of
// recipients whose email was sent and recorded. A failed send leaves its
// projects pending for the next run. The returned error joins every
// per-recipient failure.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	records, err := d.store.Query(ctx, snapshot.Filter{PendingNotification: true})
	if err != nil {
		return 0, fmt.Errorf("querying pending contacts: %w", err)
	}

	recipients := d.group(records)
	sent := 0
	var errs []error
	for _, r := range recipients {
		if err := d.dispatch(ctx, r); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}

	if len(recipients) > 0 {
		d.logger.Info("contact notifications dispatched", "recipients", len(recipients), "sent", sent)
	}
	return sent, errors.Join(errs...)
}

func (d *Dispatcher) group(records []snapshot.Record) []*recipient {
	byEmail := make(map[string]*recipient)
	for _, rec := range records {
		c := rec.Contact
		if c == nil || !c.Finalized || c.Notified {
			continue
		}
		email := strings.TrimSpace(c.Email)
		if email == "" {
			d.logger.Warn("designated contact has no email", "project_id", rec.ProjectID, "username", c.Username)
			continue
		}
		key := strings.ToLower(email)
		r, ok := byEmail[key]
		if !ok {
			r = &recipient{email: email, name: c.FullName()}
			byEmail[key] = r
		}
		r.records = append(r.records, rec)
	}

	out := make([]*recipient, 0, len(byEmail))
	for _, r := range byEmail {
		sort.Slice(r.records, func(i, j int) bool { return r.records[i].ProjectID < r.records[j].ProjectID })
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].email) < strings.ToLower(out[j].email) })
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, r *recipient) error {
	data := pendingData{Name: r.name}
	for _, rec := range r.records {
		data.Projects = append(data.Projects, pendingProject{
			ID:    rec.ProjectID,
			Title: rec.Title,
			Link:  fmt.Sprintf("%s%d", d.opts.ProjectURL, rec.ProjectID),
		})
	}
	body, err := renderPending(data)
	if err != nil {
		return fmt.Errorf("rendering email for %s: %w", r.email, err)
	}

	if err := d.sender.Send(ctx, r.email, d.opts.From, Subject, body); err != nil {
		d.observe(false)
		d.logger.Error("contact notification failed", "to", r.email, "projects", len(r.records), "error", err)
		return fmt.Errorf("sending to %s: %w", r.email, err)
	}
	d.observe(true)

	notified := true
	patches := make(map[int64]snapshot.Patch, len(r.records))
	for _, rec := range r.records {
		patches[rec.ProjectID] = snapshot.Patch{ContactNotified: &notified}
	}
	if err := d.store.UpsertBatch(ctx, patches); err != nil {
		// The email went out; the projects stay pending and will be resent.
		d.logger.Error("marking contacts notified failed", "to", r.email, "projects", len(r.records), "error", err)
		return fmt.Errorf("marking notified for %s: %w", r.email, err)
	}
	return nil
}

func (d *Dispatcher) observe(sent bool) {
	if d.recorder != nil {
		d.recorder.ObserveNotification(sent)
	}
}

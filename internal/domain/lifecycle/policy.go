package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

const (
	LabelArchive  = "Archive project by Cron"
	LabelInactive = "Set project as Inactive by Cron"

	DefaultInactivityPeriod = 365 * 24 * time.Hour
	DefaultCountWindow      = 90 * 24 * time.Hour
)

// Policy decides time-based status transitions. It holds no state and does
// no I/O except in Recount.
type Policy struct {
	// InactivityPeriod is how long a project may go without a log entry
	// before it is retired.
	InactivityPeriod time.Duration
	// CountWindow is the trailing window used for logCountLast3Months.
	CountWindow time.Duration
}

// DefaultPolicy returns a one year inactivity period and a three month count
// window.
func DefaultPolicy() Policy {
	return Policy{InactivityPeriod: DefaultInactivityPeriod, CountWindow: DefaultCountWindow}
}

// Transition is a status change decided by the policy.
type Transition struct {
	From  project.Status `json:"from"`
	To    project.Status `json:"to"`
	Label string         `json:"label"`
	At    time.Time      `json:"at"`
	// InactiveAt is the platform inactivity timestamp after the transition.
	// Nil clears it on the platform; the snapshot is stamped with At either way.
	InactiveAt *time.Time `json:"inactive_at,omitempty"`
}

// Decide returns the transition for a project whose last log entry is
// missing or older than the inactivity period. Only Development and
// Production projects ever transition.
func (p Policy) Decide(status project.Status, lastLogEntryAt *time.Time, now time.Time) (Transition, bool) {
	if !status.Active() {
		return Transition{}, false
	}
	if lastLogEntryAt != nil && !lastLogEntryAt.Before(now.Add(-p.inactivityPeriod())) {
		return Transition{}, false
	}

	if status == project.StatusDevelopment {
		return Transition{
			From:  status,
			To:    project.StatusArchived,
			Label: LabelArchive,
			At:    now,
		}, true
	}
	at := now
	return Transition{
		From:       status,
		To:         project.StatusInactive,
		Label:      LabelInactive,
		At:         now,
		InactiveAt: &at,
	}, true
}

// NeedsRecount reports whether the log count must be refreshed for a
// project that did not transition: it is active and the diff carries a new
// last log entry.
func (p Policy) NeedsRecount(status project.Status, diff snapshot.Patch) bool {
	return status.Active() && diff.LastLogEntryAt != nil && diff.LastLogEntryAt.Valid
}

// Recount counts activity events in the window ending at lastLogEntryAt.
func (p Policy) Recount(ctx context.Context, reader activity.Reader, projectID int64, lastLogEntryAt time.Time) (int, error) {
	n, err := reader.CountEventsInWindow(ctx, projectID, lastLogEntryAt, p.countWindow())
	if err != nil {
		return 0, fmt.Errorf("counting events for project %d: %w", projectID, err)
	}
	return n, nil
}

// Patch returns the snapshot fields the transition changes. The snapshot
// records when the project was retired for both Archived and Inactive, even
// though the platform only keeps an inactivity time for Inactive.
func (t Transition) Patch() snapshot.Patch {
	to := t.To
	at := t.At
	return snapshot.Patch{
		Status:                 &to,
		InactiveTransitionedAt: snapshot.NullTimeOf(&at),
		LastUpdatedAt:          &at,
	}
}

func (p Policy) inactivityPeriod() time.Duration {
	if p.InactivityPeriod <= 0 {
		return DefaultInactivityPeriod
	}
	return p.InactivityPeriod
}

func (p Policy) countWindow() time.Duration {
	if p.CountWindow <= 0 {
		return DefaultCountWindow
	}
	return p.CountWindow
}

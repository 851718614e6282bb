package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/project"
)

// StatusWriter updates the platform's own copy of a project status.
type StatusWriter interface {
	SetStatus(ctx context.Context, projectID int64, status project.Status, inactiveAt *time.Time) error
}

// UserLister lists the users of a project.
type UserLister interface {
	ProjectUsers(ctx context.Context, projectID int64) ([]string, error)
}

// Effects carries out everything a transition implies outside the snapshot.
type Effects struct {
	status StatusWriter
	audit  activity.Sink
	ledger Ledger
	users  UserLister
	logger *slog.Logger
}

// NewEffects creates transition side effects.
func NewEffects(status StatusWriter, audit activity.Sink, ledger Ledger, users UserLister, logger *slog.Logger) *Effects {
	if logger == nil {
		logger = slog.Default()
	}
	return &Effects{status: status, audit: audit, ledger: ledger, users: users, logger: logger}
}

// ErrStatusWrite marks a transition the platform did not accept. Nothing else
// was done for it.
var ErrStatusWrite = errors.New("platform status write failed")

// Apply writes the new status back to the platform, then audits the
// transition and replaces the project's open notices with one per user.
// Failures after the status write are joined and returned; the transition
// itself stands.
func (e *Effects) Apply(ctx context.Context, projectID int64, t Transition) error {
	if err := e.status.SetStatus(ctx, projectID, t.To, t.InactiveAt); err != nil {
		return fmt.Errorf("%w: project %d: %w", ErrStatusWrite, projectID, err)
	}

	var errs []error
	if err := e.audit.Append(ctx, activity.CategoryManageDesign, t.Label, projectID); err != nil {
		errs = append(errs, fmt.Errorf("auditing transition: %w", err))
	}

	users, err := e.users.ProjectUsers(ctx, projectID)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing project users: %w", err))
		return errors.Join(errs...)
	}
	if err := e.ledger.SupersedeOpen(ctx, projectID); err != nil {
		errs = append(errs, fmt.Errorf("superseding notices: %w", err))
		return errors.Join(errs...)
	}
	for _, username := range users {
		if err := e.ledger.CreateInstance(ctx, projectID, username, t.From.String(), t.At); err != nil {
			errs = append(errs, fmt.Errorf("creating notice for %s: %w", username, err))
		}
	}

	e.logger.Info("project transitioned",
		"project_id", projectID,
		"from", t.From.String(),
		"to", t.To.String(),
		"notified_users", len(users),
	)
	return errors.Join(errs...)
}

package contact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// Resolver picks the initial designated contact for a newly observed
// project.
type Resolver struct {
	dir    directory.Directory
	reader activity.Reader
	logger *slog.Logger
	now    func() time.Time
}

// NewResolver creates a contact resolver.
func NewResolver(dir directory.Directory, reader activity.Reader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{dir: dir, reader: reader, logger: logger, now: time.Now}
}

// Resolve returns the project creator when they hold elevated rights,
// otherwise the elevated user with the most recent activity, otherwise nil.
// Finding nobody is not an error.
func (r *Resolver) Resolve(ctx context.Context, projectID int64) (*snapshot.Contact, error) {
	eligible, err := r.dir.UsersWithElevatedRights(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing elevated users: %w", err)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	creator, err := r.dir.Creator(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("looking up creator: %w", err)
	}
	if creator != nil && contains(eligible, creator.Username) {
		return r.contactFor(*creator), nil
	}

	actor, err := r.reader.MostRecentActor(ctx, projectID, eligible)
	if err != nil {
		return nil, fmt.Errorf("finding recent actor: %w", err)
	}
	if actor == "" {
		r.logger.Debug("no designated contact candidate", "project_id", projectID)
		return nil, nil
	}
	users, err := r.dir.LookupUsers(ctx, []string{actor})
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", actor, err)
	}
	user, ok := users[actor]
	if !ok {
		return nil, nil
	}
	return r.contactFor(user), nil
}

func (r *Resolver) contactFor(u directory.User) *snapshot.Contact {
	return &snapshot.Contact{
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Phone:      u.Phone,
		AssignedAt: r.now().UTC(),
		Finalized:  true,
		Notified:   false,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

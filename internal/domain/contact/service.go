package contact

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/notify"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// Options configures contact change emails and the widget form.
type Options struct {
	From string
	// WidgetAction is the form target; "%d" is replaced by the project id.
	WidgetAction string
}

// Service manages designated contacts after their initial assignment.
type Service struct {
	store  snapshot.Store
	dir    directory.Directory
	audit  activity.Sink
	sender notify.Sender
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a contact service.
func NewService(store snapshot.Store, dir directory.Directory, audit activity.Sink, sender notify.Sender, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WidgetAction == "" {
		opts.WidgetAction = "/api/projects/%d/contact"
	}
	return &Service{store: store, dir: dir, audit: audit, sender: sender, opts: opts, logger: logger, now: time.Now}
}

// Get returns the current designated contact, or nil when none is set.
func (s *Service) Get(ctx context.Context, projectID int64) (*snapshot.Contact, error) {
	rec, err := s.record(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return rec.Contact, nil
}

// Candidates lists the users who may be designated contact, sorted by
// username.
func (s *Service) Candidates(ctx context.Context, projectID int64) ([]directory.User, error) {
	usernames, err := s.dir.UsersWithElevatedRights(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing elevated users: %w", err)
	}
	if len(usernames) == 0 {
		return []directory.User{}, nil
	}
	found, err := s.dir.LookupUsers(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("looking up users: %w", err)
	}
	out := make([]directory.User, 0, len(found))
	for _, u := range found {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Change makes newUsername the designated contact on behalf of changedBy.
// Both must hold elevated rights on the project. The old and new contacts
// are emailed unless they made the change themselves; email failures are
// logged only.
func (s *Service) Change(ctx context.Context, projectID int64, newUsername, changedBy string) (*snapshot.Contact, error) {
	newUsername = strings.TrimSpace(newUsername)
	changedBy = strings.TrimSpace(changedBy)
	if projectID <= 0 || newUsername == "" || changedBy == "" {
		return nil, ErrInvalidInput
	}

	eligible, err := s.dir.UsersWithElevatedRights(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing elevated users: %w", err)
	}
	if !contains(eligible, changedBy) || !contains(eligible, newUsername) {
		return nil, ErrNotEligible
	}

	rec, err := s.record(ctx, projectID)
	if err != nil {
		return nil, err
	}
	old := rec.Contact
	if old != nil && old.Username == newUsername {
		return old, nil
	}

	users, err := s.dir.LookupUsers(ctx, []string{newUsername, changedBy})
	if err != nil {
		return nil, fmt.Errorf("looking up users: %w", err)
	}
	user, ok := users[newUsername]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, newUsername)
	}

	now := s.now().UTC()
	c := snapshot.Contact{
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		Phone:      user.Phone,
		AssignedAt: now,
		Finalized:  true,
		// The change emails below replace the dispatcher's welcome email.
		Notified: true,
	}
	patch := snapshot.Patch{Contact: &c, LastUpdatedAt: &now}
	if err := s.store.UpsertBatch(ctx, map[int64]snapshot.Patch{projectID: patch}); err != nil {
		return nil, fmt.Errorf("saving contact: %w", err)
	}

	msg := fmt.Sprintf("Designated Contact changed to %s by %s", newUsername, changedBy)
	if err := s.audit.Append(ctx, activity.CategoryNewContact, msg, projectID); err != nil {
		s.logger.Error("audit contact change failed", "project_id", projectID, "error", err)
	}

	changer := changedBy
	if u, ok := users[changedBy]; ok {
		changer = u.FullName()
	}
	s.sendChangeEmails(ctx, projectID, old, c, changedBy, changer)

	s.logger.Info("designated contact changed", "project_id", projectID, "contact", newUsername, "changed_by", changedBy)
	return &c, nil
}

func (s *Service) sendChangeEmails(ctx context.Context, projectID int64, old *snapshot.Contact, added snapshot.Contact, changedBy, changer string) {
	data := changeData{ProjectID: projectID, Changer: changer, Added: added.FullName()}
	if old != nil {
		data.Removed = old.FullName()
	}
	body, err := render(changeTmpl, data)
	if err != nil {
		s.logger.Error("rendering contact change email failed", "project_id", projectID, "error", err)
		return
	}

	if old != nil && old.Username != changedBy {
		s.send(ctx, projectID, old.Username, old.Email, SubjectRemoved, body)
	}
	if added.Username != changedBy {
		s.send(ctx, projectID, added.Username, added.Email, SubjectAdded, body)
	}
}

func (s *Service) send(ctx context.Context, projectID int64, username, email, subject, body string) {
	if strings.TrimSpace(email) == "" {
		s.logger.Error("cannot email contact without address", "project_id", projectID, "username", username)
		return
	}
	if err := s.sender.Send(ctx, email, s.opts.From, subject, body); err != nil {
		s.logger.Error("contact change email failed", "project_id", projectID, "to", email, "error", err)
	}
}

// ProjectsForContact lists the ids of projects whose designated contact is
// username, ascending.
func (s *Service) ProjectsForContact(ctx context.Context, username string) ([]int64, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrInvalidInput
	}
	recs, err := s.store.Query(ctx, snapshot.Filter{ContactUsername: username})
	if err != nil {
		return nil, fmt.Errorf("querying contact projects: %w", err)
	}
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ProjectID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ArchivedCount counts archived projects visible to username.
func (s *Service) ArchivedCount(ctx context.Context, username string) (int, error) {
	if strings.TrimSpace(username) == "" {
		return 0, ErrInvalidInput
	}
	return s.dir.ArchivedProjectCount(ctx, username)
}

type widgetData struct {
	Contact    *snapshot.Contact
	IsMe       bool
	Candidates []directory.User
	Selected   string
	Action     string
}

// Widget renders the contact box shown to viewer. Only users with elevated
// rights see it.
func (s *Service) Widget(ctx context.Context, projectID int64, viewer string) (template.HTML, error) {
	candidates, err := s.Candidates(ctx, projectID)
	if err != nil {
		return "", err
	}
	allowed := false
	for _, c := range candidates {
		if c.Username == viewer {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrNotEligible
	}

	current, err := s.Get(ctx, projectID)
	if err != nil && !errors.Is(err, ErrNotMonitored) {
		return "", err
	}
	data := widgetData{
		Contact:    current,
		Candidates: candidates,
		Action:     fmt.Sprintf(s.opts.WidgetAction, projectID),
	}
	if current != nil {
		data.IsMe = current.Username == viewer
		data.Selected = current.Username
	}
	out, err := render(widgetTmpl, data)
	if err != nil {
		return "", fmt.Errorf("rendering widget: %w", err)
	}
	return template.HTML(out), nil
}

func (s *Service) record(ctx context.Context, projectID int64) (*snapshot.Record, error) {
	rec, err := s.store.Get(ctx, projectID)
	if errors.Is(err, snapshot.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("%w: project %d", ErrNotMonitored, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return rec, nil
}

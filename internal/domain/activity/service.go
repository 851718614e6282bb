package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service handles audit log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new audit service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Append writes one audit entry stamped with the current time.
func (s *Service) Append(ctx context.Context, category Category, message string, projectID int64) error {
	if projectID <= 0 || strings.TrimSpace(message) == "" {
		return ErrInvalidInput
	}
	entry := &Entry{
		ProjectID: projectID,
		Category:  category,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	s.logger.Debug("audit entry", "project_id", projectID, "category", category, "message", message)
	return nil
}

// List returns audit entries, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	return s.repo.List(ctx, opts)
}

package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/projmon/internal/domain/contact"
	"github.com/rpggio/projmon/internal/domain/project"
)

// ErrNoUser is returned by user-scoped tools when the session has no
// platform user.
var ErrNoUser = errors.New("no platform user for this session")

// APIError represents a tool error with a hint for the caller.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	cause        error
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// MapError maps domain errors to tool error codes. Unknown errors pass
// through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	apiErr := func(code, msg, hint string) error {
		return &APIError{Code: code, Message: msg, RecoveryHint: hint, cause: err}
	}
	switch {
	case errors.Is(err, contact.ErrNotMonitored):
		return apiErr("NOT_MONITORED", "project has no snapshot yet", "Wait for the next reconciliation run")
	case errors.Is(err, contact.ErrNotEligible):
		return apiErr("NOT_ELIGIBLE", "user lacks user rights on the project", "Pick a user from list_contact_candidates")
	case errors.Is(err, contact.ErrUserNotFound):
		return apiErr("USER_NOT_FOUND", "user not found", "Check the username spelling")
	case errors.Is(err, contact.ErrInvalidInput):
		return apiErr("INVALID_INPUT", "invalid project id or username", "")
	case errors.Is(err, project.ErrProjectNotFound):
		return apiErr("PROJECT_NOT_FOUND", "project not found", "")
	case errors.Is(err, ErrNoUser):
		return apiErr("NO_USER", "session is not bound to a platform user", "Authenticate with an API key or set transport.user")
	default:
		return err
	}
}

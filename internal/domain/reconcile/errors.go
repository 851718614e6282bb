package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// RunError reports the failures of a completed run. The run itself went as
// far as it could; nothing here is retried.
type RunError struct {
	// Updates and Deletions are the batched write failures, if any.
	Updates   error
	Deletions error
	// Projects holds per-project planning and side-effect failures.
	Projects []error
}

func (e *RunError) Error() string {
	var parts []string
	if e.Updates != nil {
		parts = append(parts, fmt.Sprintf("update batch: %v", e.Updates))
	}
	if e.Deletions != nil {
		parts = append(parts, fmt.Sprintf("deletion batch: %v", e.Deletions))
	}
	if n := len(e.Projects); n > 0 {
		parts = append(parts, fmt.Sprintf("%d project error(s): %v", n, errors.Join(e.Projects...)))
	}
	return "reconciliation incomplete: " + strings.Join(parts, "; ")
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Projects)+2)
	if e.Updates != nil {
		errs = append(errs, e.Updates)
	}
	if e.Deletions != nil {
		errs = append(errs, e.Deletions)
	}
	return append(errs, e.Projects...)
}

func (e *RunError) empty() bool {
	return e.Updates == nil && e.Deletions == nil && len(e.Projects) == 0
}

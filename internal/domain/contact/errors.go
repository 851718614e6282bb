package contact

import "errors"

var (
	ErrNotEligible  = errors.New("user does not have user rights privileges on the project")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid contact input")
	ErrNotMonitored = errors.New("project is not monitored yet")
)

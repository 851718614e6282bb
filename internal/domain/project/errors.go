package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist on the platform.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidStatus indicates an unknown platform status code.
	ErrInvalidStatus = errors.New("invalid project status")
)

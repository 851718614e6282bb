package project

import (
	"fmt"
	"time"
)

// Status is the platform lifecycle status of a project. The numeric values
// match the codes stored by the host platform.
type Status int

const (
	StatusDevelopment        Status = 0
	StatusProduction         Status = 1
	StatusInactive           Status = 2
	StatusArchived           Status = 3
	StatusMarkedDeleted      Status = 98
	StatusPermanentlyDeleted Status = 99
)

var statusLabels = map[Status]string{
	StatusDevelopment:        "Development",
	StatusProduction:         "Production",
	StatusInactive:           "Inactive",
	StatusArchived:           "Archived",
	StatusMarkedDeleted:      "Marked to be Deleted",
	StatusPermanentlyDeleted: "Permanently Deleted",
}

// String returns the human readable label for the status.
func (s Status) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Valid reports whether s is one of the known platform codes.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Active reports whether the project is still in a working state
// (Development or Production). Only active projects are subject to
// inactivity transitions.
func (s Status) Active() bool {
	return s == StatusDevelopment || s == StatusProduction
}

// Project is a row of the platform-wide projects table as currently observed.
type Project struct {
	ID                    int64      `json:"id"`
	CreatedAt             time.Time  `json:"created_at"`
	Title                 string     `json:"title"`
	Purpose               string     `json:"purpose"`
	IRBNumber             string     `json:"irb_number,omitempty"`
	PrincipalInvestigator string     `json:"principal_investigator,omitempty"`
	Status                Status     `json:"status"`
	LastLogEntryAt        *time.Time `json:"last_log_entry_at,omitempty"`
}

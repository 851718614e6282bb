package snapshot

import (
	"strings"
	"time"

	"github.com/rpggio/projmon/internal/domain/project"
)

// Contact is the designated point of contact for a project.
type Contact struct {
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
	// Finalized marks the assignment as complete; only finalized contacts are
	// picked up by the notification dispatcher.
	Finalized bool `json:"finalized"`
	Notified  bool `json:"notified"`
}

// FullName returns "First Last", trimmed.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Record is the tracking copy of a project as last observed by the reconciler.
type Record struct {
	ProjectID              int64          `json:"project_id"`
	CreatedAt              time.Time      `json:"created_at"`
	Title                  string         `json:"title"`
	Purpose                string         `json:"purpose"`
	IRBNumber              string         `json:"irb_number,omitempty"`
	PrincipalInvestigator  string         `json:"principal_investigator,omitempty"`
	Status                 project.Status `json:"status"`
	LastLogEntryAt         *time.Time     `json:"last_log_entry_at,omitempty"`
	LastUpdatedAt          *time.Time     `json:"last_updated_at,omitempty"`
	LogCountLast3Months    int            `json:"log_count_last_3_months"`
	InactiveTransitionedAt *time.Time     `json:"inactive_transitioned_at,omitempty"`
	Contact                *Contact       `json:"contact,omitempty"`
}

// Filter selects snapshot records. Zero-valued fields are ignored.
type Filter struct {
	IDs      []int64
	Statuses []project.Status
	// ContactUsername matches records whose designated contact is this user.
	ContactUsername string
	// PendingNotification matches finalized contacts not yet notified.
	PendingNotification bool
}

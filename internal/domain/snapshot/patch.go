package snapshot

import (
	"database/sql"
	"time"

	"github.com/rpggio/projmon/internal/domain/project"
)

// Patch is a partial snapshot record. Nil fields are not written. Nullable
// timestamps use sql.NullTime so a patch can clear a stored value.
type Patch struct {
	CreatedAt              *time.Time      `json:"created_at,omitempty"`
	Title                  *string         `json:"title,omitempty"`
	Purpose                *string         `json:"purpose,omitempty"`
	IRBNumber              *string         `json:"irb_number,omitempty"`
	PrincipalInvestigator  *string         `json:"principal_investigator,omitempty"`
	Status                 *project.Status `json:"status,omitempty"`
	LastLogEntryAt         *sql.NullTime   `json:"last_log_entry_at,omitempty"`
	LastUpdatedAt          *time.Time      `json:"last_updated_at,omitempty"`
	LogCountLast3Months    *int            `json:"log_count_last_3_months,omitempty"`
	InactiveTransitionedAt *sql.NullTime   `json:"inactive_transitioned_at,omitempty"`
	Contact                *Contact        `json:"contact,omitempty"`
	ContactNotified        *bool           `json:"contact_notified,omitempty"`
}

// NullTimeOf converts an optional timestamp into a patch value.
func NullTimeOf(t *time.Time) *sql.NullTime {
	if t == nil {
		return &sql.NullTime{}
	}
	return &sql.NullTime{Time: *t, Valid: true}
}

// IsEmpty reports whether the patch sets no field.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the names of the fields the patch sets.
func (p Patch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.CreatedAt != nil, "created_at")
	add(p.Title != nil, "title")
	add(p.Purpose != nil, "purpose")
	add(p.IRBNumber != nil, "irb_number")
	add(p.PrincipalInvestigator != nil, "principal_investigator")
	add(p.Status != nil, "status")
	add(p.LastLogEntryAt != nil, "last_log_entry_at")
	add(p.LastUpdatedAt != nil, "last_updated_at")
	add(p.LogCountLast3Months != nil, "log_count_last_3_months")
	add(p.InactiveTransitionedAt != nil, "inactive_transitioned_at")
	add(p.Contact != nil, "contact")
	add(p.ContactNotified != nil, "contact_notified")
	return fields
}

// Merge returns p overlaid with every field set in o. Fields o leaves unset
// keep p's value, so independent decisions about the same record combine
// instead of clobbering each other.
func (p Patch) Merge(o Patch) Patch {
	out := p
	if o.CreatedAt != nil {
		out.CreatedAt = o.CreatedAt
	}
	if o.Title != nil {
		out.Title = o.Title
	}
	if o.Purpose != nil {
		out.Purpose = o.Purpose
	}
	if o.IRBNumber != nil {
		out.IRBNumber = o.IRBNumber
	}
	if o.PrincipalInvestigator != nil {
		out.PrincipalInvestigator = o.PrincipalInvestigator
	}
	if o.Status != nil {
		out.Status = o.Status
	}
	if o.LastLogEntryAt != nil {
		out.LastLogEntryAt = o.LastLogEntryAt
	}
	if o.LastUpdatedAt != nil {
		out.LastUpdatedAt = o.LastUpdatedAt
	}
	if o.LogCountLast3Months != nil {
		out.LogCountLast3Months = o.LogCountLast3Months
	}
	if o.InactiveTransitionedAt != nil {
		out.InactiveTransitionedAt = o.InactiveTransitionedAt
	}
	if o.Contact != nil {
		out.Contact = o.Contact
	}
	if o.ContactNotified != nil {
		out.ContactNotified = o.ContactNotified
	}
	return out
}

// Apply writes the patch onto rec.
func (p Patch) Apply(rec *Record) {
	if p.CreatedAt != nil {
		rec.CreatedAt = *p.CreatedAt
	}
	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.Purpose != nil {
		rec.Purpose = *p.Purpose
	}
	if p.IRBNumber != nil {
		rec.IRBNumber = *p.IRBNumber
	}
	if p.PrincipalInvestigator != nil {
		rec.PrincipalInvestigator = *p.PrincipalInvestigator
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.LastLogEntryAt != nil {
		rec.LastLogEntryAt = timePtr(*p.LastLogEntryAt)
	}
	if p.LastUpdatedAt != nil {
		t := *p.LastUpdatedAt
		rec.LastUpdatedAt = &t
	}
	if p.LogCountLast3Months != nil {
		rec.LogCountLast3Months = *p.LogCountLast3Months
	}
	if p.InactiveTransitionedAt != nil {
		rec.InactiveTransitionedAt = timePtr(*p.InactiveTransitionedAt)
	}
	if p.Contact != nil {
		c := *p.Contact
		rec.Contact = &c
	}
	if p.ContactNotified != nil && rec.Contact != nil {
		rec.Contact.Notified = *p.ContactNotified
	}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

package snapshot

import (
	"time"

	"github.com/rpggio/projmon/internal/domain/project"
)

// Diff returns the tracked fields of live that differ from snap. A nil snap
// yields the whole live record.
func Diff(live project.Project, snap *Record) Patch {
	var p Patch
	if snap == nil {
		createdAt := live.CreatedAt
		title, purpose, irb, pi := live.Title, live.Purpose, live.IRBNumber, live.PrincipalInvestigator
		status := live.Status
		p.CreatedAt = &createdAt
		p.Title = &title
		p.Purpose = &purpose
		p.IRBNumber = &irb
		p.PrincipalInvestigator = &pi
		p.Status = &status
		p.LastLogEntryAt = NullTimeOf(live.LastLogEntryAt)
		return p
	}

	if !sameTime(live.CreatedAt, snap.CreatedAt) {
		createdAt := live.CreatedAt
		p.CreatedAt = &createdAt
	}
	if live.Title != snap.Title {
		v := live.Title
		p.Title = &v
	}
	if live.Purpose != snap.Purpose {
		v := live.Purpose
		p.Purpose = &v
	}
	if live.IRBNumber != snap.IRBNumber {
		v := live.IRBNumber
		p.IRBNumber = &v
	}
	if live.PrincipalInvestigator != snap.PrincipalInvestigator {
		v := live.PrincipalInvestigator
		p.PrincipalInvestigator = &v
	}
	if live.Status != snap.Status {
		v := live.Status
		p.Status = &v
	}
	if !sameOptionalTime(live.LastLogEntryAt, snap.LastLogEntryAt) {
		p.LastLogEntryAt = NullTimeOf(live.LastLogEntryAt)
	}
	return p
}

// Stores round-trip timestamps at different precisions; compare at the
// coarsest one any backend keeps.
func sameTime(a, b time.Time) bool {
	return a.Truncate(time.Microsecond).Equal(b.Truncate(time.Microsecond))
}

func sameOptionalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameTime(*a, *b)
}

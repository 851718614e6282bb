package reconcile

import (
	"sort"
	"time"

	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// Plan is everything one reconciliation run intends to write. Updates holds
// one merged patch per live project that changed; Deletions holds the
// deletion sweep.
type Plan struct {
	At          time.Time                      `json:"at"`
	LiveCount   int                            `json:"live_count"`
	Updates     map[int64]snapshot.Patch       `json:"updates"`
	Deletions   map[int64]snapshot.Patch       `json:"deletions"`
	Transitions map[int64]lifecycle.Transition `json:"transitions"`
	Assignments map[int64]snapshot.Contact     `json:"assignments"`
	Errors      []error                        `json:"-"`
}

func newPlan(at time.Time) *Plan {
	return &Plan{
		At:          at,
		Updates:     make(map[int64]snapshot.Patch),
		Deletions:   make(map[int64]snapshot.Patch),
		Transitions: make(map[int64]lifecycle.Transition),
		Assignments: make(map[int64]snapshot.Contact),
	}
}

// Empty reports whether the plan writes nothing.
func (p *Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Deletions) == 0
}

// Sweep marks snapshot ids missing from live as permanently deleted. Ids are
// considered over [1, max(liveIDs)]. With dense set, a gap counts as a
// deletion even when it was never snapshotted. An empty live set sweeps
// nothing.
func Sweep(liveIDs []int64, snapshots map[int64]snapshot.Record, now time.Time, dense bool) map[int64]snapshot.Patch {
	out := make(map[int64]snapshot.Patch)
	if len(liveIDs) == 0 {
		return out
	}

	live := make(map[int64]struct{}, len(liveIDs))
	var maxID int64
	for _, id := range liveIDs {
		live[id] = struct{}{}
		if id > maxID {
			maxID = id
		}
	}

	mark := func(id int64) {
		status := project.StatusPermanentlyDeleted
		at := now
		out[id] = snapshot.Patch{Status: &status, LastUpdatedAt: &at}
	}

	if !dense {
		for id, rec := range snapshots {
			if id < 1 || id > maxID {
				continue
			}
			if _, ok := live[id]; ok || rec.Status == project.StatusPermanentlyDeleted {
				continue
			}
			mark(id)
		}
		return out
	}

	for id := int64(1); id <= maxID; id++ {
		if _, ok := live[id]; ok {
			continue
		}
		if rec, ok := snapshots[id]; ok && rec.Status == project.StatusPermanentlyDeleted {
			continue
		}
		mark(id)
	}
	return out
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

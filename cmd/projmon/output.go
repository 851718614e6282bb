package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/rpggio/projmon/internal/domain/reconcile"
)

var (
	added    = color.New(color.FgGreen)
	changed  = color.New(color.FgYellow)
	removed  = color.New(color.FgRed)
	headline = color.New(color.Bold)
)

// printPlan writes a human-readable dry run.
func printPlan(w io.Writer, plan *reconcile.Plan) {
	headline.Fprintf(w, "Reconciliation plan at %s\n", plan.At.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  live projects: %d\n", plan.LiveCount)
	fmt.Fprintf(w, "  snapshot updates: %d\n", len(plan.Updates))

	for _, id := range sortedIDs(plan.Transitions) {
		t := plan.Transitions[id]
		changed.Fprintf(w, "\t~ project %d: %s -> %s (%s)\n", id, t.From, t.To, t.Label)
	}
	for _, id := range sortedIDs(plan.Assignments) {
		added.Fprintf(w, "\t+ project %d: designated contact %s\n", id, plan.Assignments[id].Username)
	}
	for _, id := range sortedIDs(plan.Deletions) {
		removed.Fprintf(w, "\t- project %d: permanently deleted\n", id)
	}
	for _, err := range plan.Errors {
		removed.Fprintf(w, "\t! %v\n", err)
	}
	if plan.Empty() {
		fmt.Fprintln(w, "Nothing to do")
	} else {
		fmt.Fprintln(w, "Dry run - no changes made")
	}
}

// printResult summarises an applied run.
func printResult(w io.Writer, res reconcile.Result) {
	headline.Fprintf(w, "Reconciled %d live projects\n", res.Live)
	fmt.Fprintf(w, "  updated: %d  deleted: %d  transitioned: %d  contacts assigned: %d\n",
		res.Updated, res.Deleted, res.Transitioned, res.Assigned)
	if res.Failures > 0 {
		removed.Fprintf(w, "  failures: %d\n", res.Failures)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

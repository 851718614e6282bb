package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/reconcile"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

func init() {
	color.NoColor = true
}

func TestPrintPlan(t *testing.T) {
	at := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	status := project.StatusInactive
	plan := &reconcile.Plan{
		At:        at,
		LiveCount: 4,
		Updates:   map[int64]snapshot.Patch{5: {Status: &status}, 1: {}},
		Deletions: map[int64]snapshot.Patch{3: {}, 2: {}},
		Transitions: map[int64]lifecycle.Transition{
			5: {From: project.StatusProduction, To: project.StatusInactive, Label: lifecycle.LabelInactive},
		},
		Assignments: map[int64]snapshot.Contact{1: {Username: "alice"}},
		Errors:      []error{errors.New("project 9: directory unavailable")},
	}

	var buf bytes.Buffer
	printPlan(&buf, plan)
	out := buf.String()

	assert.Contains(t, out, "Reconciliation plan at 2026-03-01 02:00:00 UTC")
	assert.Contains(t, out, "live projects: 4")
	assert.Contains(t, out, "snapshot updates: 2")
	assert.Contains(t, out, "~ project 5: Production -> Inactive (Set project as Inactive by Cron)")
	assert.Contains(t, out, "+ project 1: designated contact alice")
	assert.Contains(t, out, "! project 9: directory unavailable")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("- project 2")), bytes.Index(buf.Bytes(), []byte("- project 3")))
	assert.Contains(t, out, "Dry run - no changes made")
}

func TestPrintPlan_Empty(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, &reconcile.Plan{At: time.Now()})
	assert.Contains(t, buf.String(), "Nothing to do")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, reconcile.Result{Live: 10, Updated: 3, Deleted: 1, Transitioned: 2, Assigned: 1})
	assert.Contains(t, buf.String(), "Reconciled 10 live projects")
	assert.Contains(t, buf.String(), "updated: 3  deleted: 1  transitioned: 2  contacts assigned: 1")
	assert.NotContains(t, buf.String(), "failures")

	buf.Reset()
	printResult(&buf, reconcile.Result{Failures: 2})
	assert.Contains(t, buf.String(), "failures: 2")
}

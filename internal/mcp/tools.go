package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/reconcile"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

type projectInput struct {
	ProjectID int64 `json:"project_id" jsonschema:"Platform project id"`
}

type pingOutput struct {
	Message string `json:"message"`
}

type contactOutput struct {
	ProjectID int64             `json:"project_id"`
	Contact   *snapshot.Contact `json:"contact,omitempty" jsonschema:"Current designated contact; absent when none is set"`
}

type candidatesOutput struct {
	ProjectID  int64            `json:"project_id"`
	Candidates []directory.User `json:"candidates"`
}

type changeContactInput struct {
	ProjectID int64  `json:"project_id" jsonschema:"Platform project id"`
	Username  string `json:"username" jsonschema:"Username of the new designated contact"`
}

type myProjectsOutput struct {
	Username    string  `json:"username"`
	ProjectIDs  []int64 `json:"project_ids"`
	ArchivedCnt int     `json:"archived_count" jsonschema:"Archived projects the user can still see"`
}

type noticesOutput struct {
	Notices []lifecycle.Notice `json:"notices"`
}

type ackOutput struct {
	Acknowledged int `json:"acknowledged"`
}

type planInput struct {
	IncludeUpdates bool `json:"include_updates,omitempty" jsonschema:"List the ids of every project whose snapshot would change"`
}

type plannedTransition struct {
	ProjectID int64  `json:"project_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Label     string `json:"label"`
}

type plannedAssignment struct {
	ProjectID int64  `json:"project_id"`
	Username  string `json:"username"`
}

type planOutput struct {
	At          time.Time           `json:"at"`
	Live        int                 `json:"live"`
	Updates     int                 `json:"updates"`
	UpdateIDs   []int64             `json:"update_ids,omitempty"`
	Deletions   []int64             `json:"deletions"`
	Transitions []plannedTransition `json:"transitions"`
	Assignments []plannedAssignment `json:"assignments"`
	Errors      []string            `json:"errors,omitempty"`
}

func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "ping",
		Description: "Check that the server is reachable",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, pingOutput, error) {
		return textResult("pong"), pingOutput{Message: "pong"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_designated_contact",
		Description: "Get the designated contact of a monitored project",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args projectInput) (*sdkmcp.CallToolResult, contactOutput, error) {
		c, err := svc.Contacts.Get(ctx, args.ProjectID)
		if err != nil {
			return nil, contactOutput{}, MapError(err)
		}
		out := contactOutput{ProjectID: args.ProjectID, Contact: c}
		if c == nil {
			return textResult(fmt.Sprintf("Project %d has no designated contact", args.ProjectID)), out, nil
		}
		return textResult(fmt.Sprintf("Project %d: %s [%s] <%s>", args.ProjectID, c.FullName(), c.Username, c.Email)), out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_contact_candidates",
		Description: "List users who may be made designated contact of a project",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args projectInput) (*sdkmcp.CallToolResult, candidatesOutput, error) {
		users, err := svc.Contacts.Candidates(ctx, args.ProjectID)
		if err != nil {
			return nil, candidatesOutput{}, MapError(err)
		}
		return textResult(fmt.Sprintf("%d candidates for project %d", len(users), args.ProjectID)),
			candidatesOutput{ProjectID: args.ProjectID, Candidates: users}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "change_designated_contact",
		Description: "Make another eligible user the designated contact. The caller must hold user rights on the project.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args changeContactInput) (*sdkmcp.CallToolResult, contactOutput, error) {
		username := getUsername(ctx)
		if username == "" {
			return nil, contactOutput{}, MapError(ErrNoUser)
		}
		c, err := svc.Contacts.Change(ctx, args.ProjectID, args.Username, username)
		if err != nil {
			return nil, contactOutput{}, MapError(err)
		}
		return textResult(fmt.Sprintf("Designated Contact of project %d is now %s", args.ProjectID, c.Username)),
			contactOutput{ProjectID: args.ProjectID, Contact: c}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_my_contact_projects",
		Description: "List projects where the current user is designated contact, plus their archived project count",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, myProjectsOutput, error) {
		username := getUsername(ctx)
		if username == "" {
			return nil, myProjectsOutput{}, MapError(ErrNoUser)
		}
		ids, err := svc.Contacts.ProjectsForContact(ctx, username)
		if err != nil {
			return nil, myProjectsOutput{}, MapError(err)
		}
		archived, err := svc.Contacts.ArchivedCount(ctx, username)
		if err != nil {
			return nil, myProjectsOutput{}, MapError(err)
		}
		return textResult(fmt.Sprintf("%s is designated contact of %d projects", username, len(ids))),
			myProjectsOutput{Username: username, ProjectIDs: ids, ArchivedCnt: archived}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_my_notices",
		Description: "List open notices about the current user's projects being archived or inactivated",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, noticesOutput, error) {
		username := getUsername(ctx)
		if username == "" {
			return nil, noticesOutput{}, MapError(ErrNoUser)
		}
		notices, err := svc.Notices.ListOpen(ctx, username)
		if err != nil {
			return nil, noticesOutput{}, err
		}
		return textResult(fmt.Sprintf("%d open notices", len(notices))), noticesOutput{Notices: notices}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "acknowledge_notice",
		Description: "Dismiss the current user's open notices for a project",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args projectInput) (*sdkmcp.CallToolResult, ackOutput, error) {
		username := getUsername(ctx)
		if username == "" {
			return nil, ackOutput{}, MapError(ErrNoUser)
		}
		n, err := svc.Notices.Acknowledge(ctx, username, args.ProjectID)
		if err != nil {
			return nil, ackOutput{}, err
		}
		return textResult(fmt.Sprintf("Acknowledged %d notices", n)), ackOutput{Acknowledged: n}, nil
	})

	if svc.Planner == nil {
		return
	}
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "plan_reconciliation",
		Description: "Compute what the next reconciliation would write without applying it",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args planInput) (*sdkmcp.CallToolResult, planOutput, error) {
		plan, err := svc.Planner.Plan(ctx)
		if err != nil {
			return nil, planOutput{}, err
		}
		out := summarizePlan(plan, args.IncludeUpdates)
		return textResult(fmt.Sprintf("%d updates, %d deletions, %d transitions, %d new contacts",
			out.Updates, len(out.Deletions), len(out.Transitions), len(out.Assignments))), out, nil
	})
}

func summarizePlan(plan *reconcile.Plan, includeUpdates bool) planOutput {
	out := planOutput{
		At:          plan.At,
		Live:        plan.LiveCount,
		Updates:     len(plan.Updates),
		Deletions:   sortedKeys(plan.Deletions),
		Transitions: []plannedTransition{},
		Assignments: []plannedAssignment{},
	}
	if includeUpdates {
		out.UpdateIDs = sortedKeys(plan.Updates)
	}
	for _, id := range sortedKeys(plan.Transitions) {
		t := plan.Transitions[id]
		out.Transitions = append(out.Transitions, plannedTransition{
			ProjectID: id,
			From:      t.From.String(),
			To:        t.To.String(),
			Label:     t.Label,
		})
	}
	for _, id := range sortedKeys(plan.Assignments) {
		out.Assignments = append(out.Assignments, plannedAssignment{ProjectID: id, Username: plan.Assignments[id].Username})
	}
	for _, err := range plan.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

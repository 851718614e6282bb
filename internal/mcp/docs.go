package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `projmon watches the research platform's projects and keeps a snapshot of each.

Core concepts:
- Snapshot: the monitor's copy of a project, refreshed by reconciliation.
- Designated Contact: the one user answerable for a project. Only users with
  user-rights privileges on the project may hold the role.
- Lifecycle: Development projects idle for a year are Archived; Production
  projects idle for a year become Inactive. Users of a retired project get a
  notice they can acknowledge.

Tools:
- get_designated_contact / list_contact_candidates / change_designated_contact
- list_my_contact_projects / list_my_notices / acknowledge_notice
- plan_reconciliation (dry run; writes nothing)

Docs:
- projmon://docs/lifecycle
- projmon://docs/contacts
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "projmon://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Project lifecycle rules",
		Description: "When the monitor archives or inactivates a project and what happens next.",
		Content: `# Project lifecycle

A project is idle when it has no log entry, or its last log entry is older
than the inactivity period (365 days by default).

| Status      | Idle result | Audit message                   |
|-------------|-------------|---------------------------------|
| Development | Archived    | Archive project by Cron         |
| Production  | Inactive    | Set project as Inactive by Cron |

Other statuses never change.

When a project is retired:
1. the snapshot records the new status and the retirement time;
2. the platform status is updated (Inactive also records the time there);
3. an audit entry is written under Manage/Design;
4. earlier open notices for the project are superseded;
5. every project user gets a new notice naming the previous status.

If the snapshot write fails nothing else happens and the next run retries.

A project that disappears from the platform is marked Permanently Deleted in
the snapshot. With dense ids, any id below the highest live id that is not
live counts as deleted.
`,
	},
	{
		URI:         "projmon://docs/contacts",
		Name:        "docs_contacts",
		Title:       "Designated contacts",
		Description: "How the designated contact is chosen, changed and notified.",
		Content: `# Designated contacts

First assignment happens during reconciliation for projects without one:
1. the creator, when they still hold user-rights privileges;
2. otherwise the eligible user with the most recent log entry;
3. otherwise nobody (retried next run).

New contacts receive one email per run listing every project they were
assigned, titled "You have been added as Designated Contact" for manual
changes and "You are a Designated Contact!" for automatic ones.

change_designated_contact requires both the caller and the new contact to
hold user-rights privileges. Both old and new contacts are emailed unless
they made the change themselves.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

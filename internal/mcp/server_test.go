package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/projmon/internal/domain/contact"
	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/project"
	"github.com/rpggio/projmon/internal/domain/reconcile"
	"github.com/rpggio/projmon/internal/domain/snapshot"
	"github.com/rpggio/projmon/internal/repository/mocks"
)

type stubContacts struct {
	contacts map[int64]*snapshot.Contact
	eligible []string
}

func (s *stubContacts) Get(ctx context.Context, projectID int64) (*snapshot.Contact, error) {
	c, ok := s.contacts[projectID]
	if !ok {
		return nil, contact.ErrNotMonitored
	}
	return c, nil
}

func (s *stubContacts) Candidates(ctx context.Context, projectID int64) ([]directory.User, error) {
	out := make([]directory.User, 0, len(s.eligible))
	for _, u := range s.eligible {
		out = append(out, directory.User{Username: u})
	}
	return out, nil
}

func (s *stubContacts) Change(ctx context.Context, projectID int64, newUsername, changedBy string) (*snapshot.Contact, error) {
	if changedBy != "alice" {
		return nil, contact.ErrNotEligible
	}
	c := &snapshot.Contact{Username: newUsername, Finalized: true, Notified: true}
	s.contacts[projectID] = c
	return c, nil
}

func (s *stubContacts) ProjectsForContact(ctx context.Context, username string) ([]int64, error) {
	return []int64{3, 42}, nil
}

func (s *stubContacts) ArchivedCount(ctx context.Context, username string) (int, error) {
	return 2, nil
}

func (s *stubContacts) Widget(ctx context.Context, projectID int64, viewer string) (template.HTML, error) {
	return "", nil
}

type stubPlanner struct {
	plan *reconcile.Plan
}

func (s stubPlanner) Plan(ctx context.Context) (*reconcile.Plan, error) {
	return s.plan, nil
}

type rejectAll struct{}

func (rejectAll) ResolveUser(ctx context.Context, token string) (string, error) {
	return "", errors.New("unknown token")
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(cfg)
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) *sdkmcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil && !result.IsError {
		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return result
}

func resultText(result *sdkmcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func newTestConfig(ledger lifecycle.Ledger, planner Planner) (Config, *stubContacts) {
	contacts := &stubContacts{
		contacts: map[int64]*snapshot.Contact{
			42: {Username: "bob", FirstName: "Bob", LastName: "Baker", Email: "bob@example.org"},
			7:  nil,
		},
		eligible: []string{"alice", "bob"},
	}
	return Config{
		Services:      Services{Contacts: contacts, Notices: ledger, Planner: planner},
		TransportMode: "stdio",
		DefaultUser:   "alice",
	}, contacts
}

func TestListTools(t *testing.T) {
	cfg, _ := newTestConfig(&mocks.NoticeLedger{}, stubPlanner{})
	session := connect(t, cfg)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"ping",
		"get_designated_contact",
		"list_contact_candidates",
		"change_designated_contact",
		"list_my_contact_projects",
		"list_my_notices",
		"acknowledge_notice",
		"plan_reconciliation",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestPlanToolOmittedWithoutPlanner(t *testing.T) {
	cfg, _ := newTestConfig(&mocks.NoticeLedger{}, nil)
	session := connect(t, cfg)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	for _, tool := range tools.Tools {
		assert.NotEqual(t, "plan_reconciliation", tool.Name)
	}
}

func TestGetDesignatedContact(t *testing.T) {
	cfg, _ := newTestConfig(&mocks.NoticeLedger{}, nil)
	session := connect(t, cfg)

	var out contactOutput
	result := callTool(t, session, "get_designated_contact", map[string]any{"project_id": 42}, &out)
	require.False(t, result.IsError, resultText(result))
	assert.Equal(t, "bob", out.Contact.Username)
	assert.Contains(t, resultText(result), "Bob Baker [bob]")

	result = callTool(t, session, "get_designated_contact", map[string]any{"project_id": 7}, nil)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(result), "no designated contact")

	result = callTool(t, session, "get_designated_contact", map[string]any{"project_id": 99}, nil)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(result), "NOT_MONITORED")
}

func TestChangeDesignatedContact(t *testing.T) {
	cfg, contacts := newTestConfig(&mocks.NoticeLedger{}, nil)
	session := connect(t, cfg)

	result := callTool(t, session, "change_designated_contact", map[string]any{"project_id": 42, "username": "alice"}, nil)
	require.False(t, result.IsError, resultText(result))
	assert.Equal(t, "alice", contacts.contacts[42].Username)
}

func TestChangeDesignatedContact_NotEligible(t *testing.T) {
	cfg, _ := newTestConfig(&mocks.NoticeLedger{}, nil)
	cfg.DefaultUser = "mallory"
	session := connect(t, cfg)

	result := callTool(t, session, "change_designated_contact", map[string]any{"project_id": 42, "username": "alice"}, nil)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(result), "NOT_ELIGIBLE")
}

func TestUserScopedToolsNeedUser(t *testing.T) {
	cfg, _ := newTestConfig(&mocks.NoticeLedger{}, nil)
	cfg.DefaultUser = ""
	session := connect(t, cfg)

	result := callTool(t, session, "list_my_contact_projects", map[string]any{}, nil)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(result), "NO_USER")
}

func TestMyProjectsAndNotices(t *testing.T) {
	ledger := &mocks.NoticeLedger{}
	ledger.On("ListOpen", mock.Anything, "alice").Return([]lifecycle.Notice{
		{ID: "n1", ProjectID: 3, Username: "alice", Reason: "Development"},
	}, nil)
	ledger.On("Acknowledge", mock.Anything, "alice", int64(3)).Return(1, nil)

	cfg, _ := newTestConfig(ledger, nil)
	session := connect(t, cfg)

	var mine myProjectsOutput
	result := callTool(t, session, "list_my_contact_projects", map[string]any{}, &mine)
	require.False(t, result.IsError, resultText(result))
	assert.Equal(t, []int64{3, 42}, mine.ProjectIDs)
	assert.Equal(t, 2, mine.ArchivedCnt)

	var notices noticesOutput
	result = callTool(t, session, "list_my_notices", map[string]any{}, &notices)
	require.False(t, result.IsError, resultText(result))
	require.Len(t, notices.Notices, 1)

	var ack ackOutput
	result = callTool(t, session, "acknowledge_notice", map[string]any{"project_id": 3}, &ack)
	require.False(t, result.IsError, resultText(result))
	assert.Equal(t, 1, ack.Acknowledged)

	ledger.AssertExpectations(t)
}

func TestPlanReconciliation(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	status := project.StatusArchived
	plan := &reconcile.Plan{
		At:        at,
		LiveCount: 3,
		Updates: map[int64]snapshot.Patch{
			5: {Status: &status},
			1: {},
		},
		Deletions: map[int64]snapshot.Patch{2: {}},
		Transitions: map[int64]lifecycle.Transition{
			5: {From: project.StatusDevelopment, To: project.StatusArchived, Label: lifecycle.LabelArchive, At: at},
		},
		Assignments: map[int64]snapshot.Contact{1: {Username: "alice"}},
	}
	cfg, _ := newTestConfig(&mocks.NoticeLedger{}, stubPlanner{plan: plan})
	session := connect(t, cfg)

	var out planOutput
	result := callTool(t, session, "plan_reconciliation", map[string]any{"include_updates": true}, &out)
	require.False(t, result.IsError, resultText(result))

	assert.Equal(t, 2, out.Updates)
	assert.Equal(t, []int64{1, 5}, out.UpdateIDs)
	assert.Equal(t, []int64{2}, out.Deletions)
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, "Development", out.Transitions[0].From)
	assert.Equal(t, "Archived", out.Transitions[0].To)
	assert.Equal(t, []plannedAssignment{{ProjectID: 1, Username: "alice"}}, out.Assignments)
	assert.Contains(t, resultText(result), "2 updates, 1 deletions, 1 transitions, 1 new contacts")
}

func TestAuthRequiredOverHTTP(t *testing.T) {
	cfg, _ := newTestConfig(&mocks.NoticeLedger{}, nil)
	cfg.TransportMode = "http"
	cfg.AuthEnabled = true
	cfg.Resolver = rejectAll{}
	session := connect(t, cfg)

	_, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "ping"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestMapError(t *testing.T) {
	assert.Nil(t, MapError(nil))

	err := MapError(contact.ErrNotEligible)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_ELIGIBLE", apiErr.Code)
	assert.ErrorIs(t, err, contact.ErrNotEligible)

	other := errors.New("boom")
	assert.Equal(t, other, MapError(other))
}

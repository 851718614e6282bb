package mcp

import (
	"context"
	"html/template"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/reconcile"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// ContactService defines contact operations needed by MCP.
type ContactService interface {
	Get(ctx context.Context, projectID int64) (*snapshot.Contact, error)
	Candidates(ctx context.Context, projectID int64) ([]directory.User, error)
	Change(ctx context.Context, projectID int64, newUsername, changedBy string) (*snapshot.Contact, error)
	ProjectsForContact(ctx context.Context, username string) ([]int64, error)
	ArchivedCount(ctx context.Context, username string) (int, error)
	Widget(ctx context.Context, projectID int64, viewer string) (template.HTML, error)
}

// Planner computes a reconciliation plan without applying it.
type Planner interface {
	Plan(ctx context.Context) (*reconcile.Plan, error)
}

// Services contains all domain services needed by MCP. Planner may be nil
// when no platform database is configured.
type Services struct {
	Contacts ContactService
	Notices  lifecycle.Ledger
	Planner  Planner
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      UserResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	// DefaultUser acts for sessions without auth.
	DefaultUser string
	Version     string
	Logger      *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "projmon",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and never authenticates.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultUser))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}

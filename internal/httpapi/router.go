// Package httpapi serves the contact and notice API over gin.
package httpapi

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/snapshot"
)

// ContactService is the contact surface used by the handlers.
type ContactService interface {
	Get(ctx context.Context, projectID int64) (*snapshot.Contact, error)
	Candidates(ctx context.Context, projectID int64) ([]directory.User, error)
	Change(ctx context.Context, projectID int64, newUsername, changedBy string) (*snapshot.Contact, error)
	ProjectsForContact(ctx context.Context, username string) ([]int64, error)
	ArchivedCount(ctx context.Context, username string) (int, error)
	Widget(ctx context.Context, projectID int64, viewer string) (template.HTML, error)
}

// ActivityService lists audit entries.
type ActivityService interface {
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains the domain services behind the API.
type Services struct {
	Contacts ContactService
	Notices  lifecycle.Ledger
	Activity ActivityService
}

// Config wires the router.
type Config struct {
	Services    Services
	Resolver    UserResolver
	AuthEnabled bool
	// MCP and Metrics are mounted at /mcp and /metrics when set.
	MCP     http.Handler
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{svc: cfg.Services, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	if cfg.MCP != nil {
		r.Any("/mcp", gin.WrapH(cfg.MCP))
		r.Any("/mcp/*path", gin.WrapH(cfg.MCP))
	}

	var auth gin.HandlerFunc
	if cfg.AuthEnabled {
		auth = AuthRequired(cfg.Resolver)
	} else {
		auth = TrustedUser()
	}

	api := r.Group("/api", auth)
	{
		api.GET("/projects/:id/contact", h.getContact)
		api.PUT("/projects/:id/contact", h.changeContact)
		api.POST("/projects/:id/contact", h.changeContact)
		api.GET("/projects/:id/contact/candidates", h.listCandidates)
		api.GET("/projects/:id/contact/widget", h.contactWidget)
		api.GET("/projects/:id/audit", h.listAudit)

		api.GET("/me/contact-projects", h.myContactProjects)
		api.GET("/me/archived-count", h.myArchivedCount)
		api.GET("/me/notices", h.myNotices)
		api.POST("/me/notices/:project/ack", h.ackNotice)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

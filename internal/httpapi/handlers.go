package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rpggio/projmon/internal/domain/activity"
	"github.com/rpggio/projmon/internal/domain/contact"
	"github.com/rpggio/projmon/internal/domain/directory"
	"github.com/rpggio/projmon/internal/domain/lifecycle"
	"github.com/rpggio/projmon/internal/domain/snapshot"
	"github.com/rpggio/projmon/internal/repository"
)

type handlers struct {
	svc    Services
	logger *slog.Logger
}

// ChangeContactRequest selects a new designated contact. It binds from JSON
// or from the widget's form post.
type ChangeContactRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
}

type contactResponse struct {
	ProjectID int64             `json:"project_id"`
	Contact   *snapshot.Contact `json:"contact"`
}

type candidatesResponse struct {
	Candidates []directory.User `json:"candidates"`
	Total      int              `json:"total"`
}

type noticesResponse struct {
	Notices []lifecycle.Notice `json:"notices"`
	Total   int                `json:"total"`
}

type auditResponse struct {
	Entries []activity.Entry `json:"entries"`
	Total   int              `json:"total"`
}

func (h *handlers) getContact(c *gin.Context) {
	id, ok := projectID(c, "id")
	if !ok {
		return
	}
	current, err := h.svc.Contacts.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get contact", err)
		return
	}
	c.JSON(http.StatusOK, contactResponse{ProjectID: id, Contact: current})
}

func (h *handlers) changeContact(c *gin.Context) {
	id, ok := projectID(c, "id")
	if !ok {
		return
	}
	var req ChangeContactRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.svc.Contacts.Change(c.Request.Context(), id, req.Username, currentUser(c))
	if err != nil {
		h.fail(c, "change contact", err)
		return
	}
	c.JSON(http.StatusOK, contactResponse{ProjectID: id, Contact: updated})
}

func (h *handlers) listCandidates(c *gin.Context) {
	id, ok := projectID(c, "id")
	if !ok {
		return
	}
	users, err := h.svc.Contacts.Candidates(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "list candidates", err)
		return
	}
	c.JSON(http.StatusOK, candidatesResponse{Candidates: users, Total: len(users)})
}

func (h *handlers) contactWidget(c *gin.Context) {
	id, ok := projectID(c, "id")
	if !ok {
		return
	}
	html, err := h.svc.Contacts.Widget(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.fail(c, "render widget", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *handlers) listAudit(c *gin.Context) {
	id, ok := projectID(c, "id")
	if !ok {
		return
	}
	opts := activity.ListOptions{ProjectID: id}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		opts.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		opts.Offset = n
	}
	if v := c.Query("category"); v != "" {
		cat := activity.Category(v)
		opts.Category = &cat
	}

	entries, err := h.svc.Activity.List(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, "list audit", err)
		return
	}
	c.JSON(http.StatusOK, auditResponse{Entries: entries, Total: len(entries)})
}

func (h *handlers) myContactProjects(c *gin.Context) {
	ids, err := h.svc.Contacts.ProjectsForContact(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, "contact projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_ids": ids, "total": len(ids)})
}

func (h *handlers) myArchivedCount(c *gin.Context) {
	n, err := h.svc.Contacts.ArchivedCount(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, "archived count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": n})
}

func (h *handlers) myNotices(c *gin.Context) {
	notices, err := h.svc.Notices.ListOpen(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, "list notices", err)
		return
	}
	c.JSON(http.StatusOK, noticesResponse{Notices: notices, Total: len(notices)})
}

func (h *handlers) ackNotice(c *gin.Context) {
	id, ok := projectID(c, "project")
	if !ok {
		return
	}
	n, err := h.svc.Notices.Acknowledge(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, "acknowledge notice", err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no open notice for project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": n})
}

func projectID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return 0, false
	}
	return id, true
}

// fail maps domain errors to status codes. Unknown errors are logged and
// reported as 500.
func (h *handlers) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, contact.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, contact.ErrNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, contact.ErrNotMonitored), errors.Is(err, contact.ErrUserNotFound),
		errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error(op+" failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + op})
	}
}

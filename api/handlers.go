// Package api exposes the service over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexandro/hslindex/hsl"
	"github.com/lexandro/hslindex/service"
	"github.com/lexandro/hslindex/task"
)

// Backend is the part of the service the HTTP layer calls.
type Backend interface {
	CreateIndex(indexPath string) (string, error)
	AddDirectory(indexPath, dir string) (task.ID, error)
	RemoveDirectory(indexPath, dir string) (task.ID, error)
	Search(ctx context.Context, query, indexPath string, max int) (service.SearchResponse, error)
	TaskStatus(id task.ID) service.TaskStatusResponse
	InterruptTask(id task.ID) service.InterruptResponse
	Shutdown() bool
}

// DefaultHaltDelay is how long the shutdown endpoint waits before halting the process,
// so the acknowledgement reaches the client.
const DefaultHaltDelay = time.Second

// Handlers contains the HTTP handlers.
type Handlers struct {
	backend   Backend
	halt      func()
	haltDelay time.Duration
	logger    *slog.Logger
	stopOnce  sync.Once
}

// NewHandlers creates handlers for backend. halt is called after a shutdown request
// has drained the backend.
func NewHandlers(backend Backend, halt func(), logger *slog.Logger) *Handlers {
	return &Handlers{
		backend:   backend,
		halt:      halt,
		haltDelay: DefaultHaltDelay,
		logger:    logger,
	}
}

// HandleCreateIndex handles POST /v1/indexes.
func (h *Handlers) HandleCreateIndex(c *gin.Context) {
	var req CreateIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	path, err := h.backend.CreateIndex(req.IndexPath)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateIndexResponse{IndexPath: path})
}

// HandleAddDirectory handles POST /v1/indexes/directories.
func (h *Handlers) HandleAddDirectory(c *gin.Context) {
	var req DirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	id, err := h.backend.AddDirectory(req.IndexPath, req.Directory)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, TaskResponse{TaskID: id})
}

// HandleRemoveDirectory handles DELETE /v1/indexes/directories.
func (h *Handlers) HandleRemoveDirectory(c *gin.Context) {
	var req DirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	id, err := h.backend.RemoveDirectory(req.IndexPath, req.Directory)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, TaskResponse{TaskID: id})
}

// HandleSearch handles GET /v1/search?q=...&index=...&max=...
func (h *Handlers) HandleSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.backend.Search(c.Request.Context(), req.Query, req.Index, req.Max)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleTaskStatus handles GET /v1/tasks/:id. Unknown ids answer 200 with NOT_FOUND.
func (h *Handlers) HandleTaskStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.backend.TaskStatus(task.ID(c.Param("id"))))
}

// HandleInterruptTask handles POST /v1/tasks/:id/interrupt.
func (h *Handlers) HandleInterruptTask(c *gin.Context) {
	c.JSON(http.StatusOK, h.backend.InterruptTask(task.ID(c.Param("id"))))
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// HandleShutdown handles POST /v1/shutdown. It acknowledges at once, drains the backend
// in the background and then halts the process.
func (h *Handlers) HandleShutdown(c *gin.Context) {
	h.logger.Info("shutdown requested", "remote", c.ClientIP())
	c.JSON(http.StatusAccepted, ShutdownResponse{Status: "shutting down"})

	h.stopOnce.Do(func() {
		go func() {
			drained := h.backend.Shutdown()
			h.logger.Info("backend stopped", "drained", drained)
			time.Sleep(h.haltDelay)
			if h.halt != nil {
				h.halt()
			}
		}()
	})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Debug("invalid request", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

// fail maps a backend error onto a status code.
func (h *Handlers) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Warn("request failed", "path", c.FullPath(), "error", err)
	} else {
		h.logger.Debug("request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, hsl.ErrSyntax):
		return http.StatusBadRequest, "SYNTAX_ERROR"
	case errors.Is(err, hsl.ErrSemantic):
		return http.StatusBadRequest, "SEMANTIC_ERROR"
	case errors.Is(err, service.ErrInvalidPath):
		return http.StatusBadRequest, "INVALID_PATH"
	case errors.Is(err, service.ErrIndexNotFound):
		return http.StatusNotFound, "INDEX_NOT_FOUND"
	case errors.Is(err, service.ErrDirectoryNotFound):
		return http.StatusNotFound, "DIRECTORY_NOT_FOUND"
	case errors.Is(err, service.ErrNotSubmitted):
		return http.StatusServiceUnavailable, "NOT_SUBMITTED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

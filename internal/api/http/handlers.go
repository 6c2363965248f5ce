package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/apps/taskmanager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Executor runs engine work on the goroutine that owns engine state
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// Deps are the components the handlers drive
type Deps struct {
	Loop       Executor
	Controller *window.Controller
	Store      *store.Store
	Registry   *process.Registry
	Tasks      *taskmanager.App
	Metrics    *monitoring.Metrics
	Logger     *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	loop     Executor
	ctrl     *window.Controller
	store    *store.Store
	registry *process.Registry
	tasks    *taskmanager.App
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		loop:     d.Loop,
		ctrl:     d.Controller,
		store:    d.Store,
		registry: d.Registry,
		tasks:    d.Tasks,
		metrics:  d.Metrics,
		logger:   logger,
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/apps", h.ListApps)
	api.GET("/apps/:id", h.GetApp)
	api.GET("/apps/:id/resources", h.GetResources)
	api.POST("/apps/:id/open", h.OpenApp)
	api.POST("/apps/:id/close", h.command((*window.Controller).Close))
	api.POST("/apps/:id/minimize", h.command((*window.Controller).Minimize))
	api.POST("/apps/:id/restore", h.command((*window.Controller).Restore))
	api.POST("/apps/:id/toggle", h.command((*window.Controller).Toggle))
	api.POST("/apps/:id/focus", h.command((*window.Controller).Focus))
	api.PUT("/apps/:id/name", h.RenameApp)
	api.GET("/stats", h.Stats)
	api.GET("/taskmgr", h.TaskManager)
	api.POST("/layout/reset", h.ResetLayout)
	api.POST("/logs", h.StreamLogs)
	api.GET("/metrics", h.MetricsSnapshot)
}

// AppView is the API shape of an application record
type AppView struct {
	*types.AppRecord
	State types.State `json:"state"`
}

func view(rec *types.AppRecord) AppView {
	return AppView{AppRecord: rec, State: rec.State()}
}

// Health handles the liveness probe
func (h *Handlers) Health(c *gin.Context) {
	var stats types.Stats
	if !h.run(c, func() error {
		stats = h.ctrl.Stats()
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"desktop": stats,
	})
}

// ListApps lists every declared application
func (h *Handlers) ListApps(c *gin.Context) {
	var apps []AppView
	if !h.run(c, func() error {
		for _, rec := range h.store.List() {
			if rec.Declared {
				apps = append(apps, view(rec))
			}
		}
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"apps": apps, "count": len(apps)})
}

// GetApp returns one application
func (h *Handlers) GetApp(c *gin.Context) {
	id := c.Param("id")
	var rec *types.AppRecord
	if !h.run(c, func() error {
		r, ok := h.store.Get(id)
		if !ok || !r.Declared {
			return window.ErrUnknownApp
		}
		rec = r
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, view(rec))
}

// GetResources returns what an application holds plus its activity
func (h *Handlers) GetResources(c *gin.Context) {
	id := c.Param("id")
	var (
		res   process.ResourceCount
		stats process.Stats
		alive bool
	)
	if !h.run(c, func() error {
		if !h.store.Has(id) {
			return window.ErrUnknownApp
		}
		res = h.registry.Resources(id)
		stats, _ = h.registry.Stats(id)
		alive = h.registry.Alive(id)
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"app_id":    id,
		"alive":     alive,
		"resources": res,
		"stats":     stats,
	})
}

// OpenApp opens or restores an application
func (h *Handlers) OpenApp(c *gin.Context) {
	id := c.Param("id")
	var req types.OpenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.respond(c, id, func() error { return h.ctrl.Open(id, req.Announce) })
}

func (h *Handlers) command(op func(*window.Controller, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		h.respond(c, id, func() error { return op(h.ctrl, id) })
	}
}

// RenameApp changes an application's display name
func (h *Handlers) RenameApp(c *gin.Context) {
	id := c.Param("id")
	var req types.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var name string
	if !h.run(c, func() error {
		var err error
		name, err = h.ctrl.Rename(id, req.Name)
		return err
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "app_id": id, "name": name})
}

// Stats returns controller statistics
func (h *Handlers) Stats(c *gin.Context) {
	var stats types.Stats
	if !h.run(c, func() error {
		stats = h.ctrl.Stats()
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TaskManager returns the current resource monitor view
func (h *Handlers) TaskManager(c *gin.Context) {
	var snap taskmanager.Snapshot
	if !h.run(c, func() error {
		snap = h.tasks.Snapshot()
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ResetLayout closes everything and returns the desktop to its defaults
func (h *Handlers) ResetLayout(c *gin.Context) {
	ctx := c.Request.Context()
	if !h.run(c, func() error { return h.ctrl.ResetLayout(ctx) }) {
		return
	}
	h.logger.Info("Desktop layout reset")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respond runs a lifecycle command and reports the resulting state
func (h *Handlers) respond(c *gin.Context, id string, fn func() error) {
	var state types.State
	if !h.run(c, func() error {
		if err := fn(); err != nil {
			return err
		}
		var err error
		state, err = h.ctrl.State(id)
		return err
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"app_id":  id,
		"state":   state,
	})
}

// run executes fn on the event loop and writes an error response when
// either the hand-off or fn fails. It reports whether the caller should
// write its own success response.
func (h *Handlers) run(c *gin.Context, fn func() error) bool {
	var opErr error
	if err := h.loop.Do(c.Request.Context(), func() { opErr = fn() }); err != nil {
		h.logger.Warn("Event loop unavailable",
			zap.String("trace_id", tracing.TraceID(c.Request.Context())),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return false
	}
	if opErr != nil {
		c.JSON(statusOf(opErr), gin.H{"error": opErr.Error()})
		return false
	}
	return true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, window.ErrUnknownApp):
		return http.StatusNotFound
	case errors.Is(err, window.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

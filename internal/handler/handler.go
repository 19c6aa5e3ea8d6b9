// Package handler exposes the roster and attendance services over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollbook/internal/attendance"
	"rollbook/internal/queue"
	"rollbook/internal/roster"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// Deps are the services the handlers call into. Events may be nil.
type Deps struct {
	Roster  *roster.Service
	Query   *roster.Query
	Tracker *attendance.Service
	Events  queue.Queue
	Checks  map[string]Check
	Log     *zap.Logger
}

// Handler serves the /api/public routes and the health probe.
type Handler struct {
	roster  *roster.Service
	query   *roster.Query
	tracker *attendance.Service
	events  queue.Queue
	checks  map[string]Check
	log     *zap.Logger
	now     func() time.Time
}

// New builds a Handler and registers its binding rules with gin.
func New(d Deps) *Handler {
	registerValidators()
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		roster:  d.Roster,
		query:   d.Query,
		tracker: d.Tracker,
		events:  d.Events,
		checks:  d.Checks,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)

	api := r.Group("/api/public")
	api.GET("/all-data", h.allData)
	api.GET("/departments/:id/classes", h.classesOf)
	api.GET("/classes/:id/students", h.studentsOf)
	api.GET("/classes/:id/summary", h.summary)

	api.POST("/departments/add", h.addDepartment)
	api.POST("/classes/add", h.addClass)
	api.POST("/students/add", h.addStudent)

	api.PATCH("/departments/edit/:id", h.editDepartment)
	api.PATCH("/classes/edit/:id", h.editClass)
	api.PATCH("/students/attendance/:id", h.updateStudent)
	api.POST("/students/mark/:id", h.markStudent)

	api.DELETE("/departments/delete/:id", h.deleteDepartment)
	api.DELETE("/classes/delete/:id", h.deleteClass)
	api.DELETE("/students/delete/:id", h.deleteStudent)
}

func (h *Handler) health(c *gin.Context) {
	results := make(gin.H, len(h.checks))
	status := http.StatusOK
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := check(ctx)
		cancel()
		results[name] = err == nil
		if err != nil {
			h.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			status = http.StatusServiceUnavailable
		}
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// bind decodes the JSON body into dst. An empty body leaves dst at its zero value.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// publish hands an event to the feed. Failures are logged and never fail the request.
func (h *Handler) publish(c *gin.Context, msg queue.Message) {
	if h.events == nil {
		return
	}
	msg.At = h.now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
	defer cancel()
	if err := h.events.Publish(ctx, msg); err != nil {
		h.log.Warn("event publish failed", zap.String("type", msg.Type), zap.String("entity_id", msg.EntityID), zap.Error(err))
	}
}

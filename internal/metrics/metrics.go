// Package metrics exposes Prometheus collectors for the roster and attendance services.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Admissions counts student admissions by result: admitted, full, rejected.
	Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbook_admissions_total",
		Help: "Student admission attempts by result.",
	}, []string{"result"})

	// StatusChanges counts attendance status writes by new status and path (mark or set).
	StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbook_status_changes_total",
		Help: "Attendance status writes by resulting status and update path.",
	}, []string{"status", "path"})

	// Deletes counts single-entity deletes.
	Deletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbook_deletes_total",
		Help: "Unconditional deletes by entity kind.",
	}, []string{"entity"})

	// EventsConsumed counts feed events handled by the worker.
	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbook_events_consumed_total",
		Help: "Roster events consumed by the worker.",
	}, []string{"type"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rollbook_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// GinMiddleware records request latency labelled by the matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

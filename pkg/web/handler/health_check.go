package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/gorm"

	"blog-platform/pkg/core/moderation"
)

const healthProbeTimeout = 2 * time.Second

type HealthCheckHandler struct {
	db   *gorm.DB
	gate *moderation.Gate
}

func NewHealthCheckHandler(db *gorm.DB, gate *moderation.Gate) *HealthCheckHandler {
	return &HealthCheckHandler{db: db, gate: gate}
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentStatus `json:"components,omitempty"`
}

type ComponentStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	IsCore  bool          `json:"is_core"`
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

var startupTime = time.Now()

// AdvancedHealthCheck reports the database and the moderation classifier.
// The classifier only counts as core when posts cannot be created without it.
func (h *HealthCheckHandler) AdvancedHealthCheck(ctx context.Context, c *app.RequestContext) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(startupTime).Truncate(time.Second).String(),
		Components: []ComponentStatus{
			h.checkDatabase(ctx),
			h.checkModeration(ctx),
		},
	}

	if hasCriticalErrors(status.Components) {
		status.Status = "degraded"
		c.JSON(503, status)
		return
	}

	c.JSON(200, status)
}

func (h *HealthCheckHandler) checkDatabase(ctx context.Context) ComponentStatus {
	comp := ComponentStatus{Name: "database", Status: "ok", IsCore: true}
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	comp.Latency = time.Since(start)
	if err != nil {
		hlog.CtxErrorf(ctx, "health: database ping failed: %v", err)
		comp.Status = "down"
		comp.Error = err.Error()
	}
	return comp
}

func (h *HealthCheckHandler) checkModeration(ctx context.Context) ComponentStatus {
	comp := ComponentStatus{Name: "moderation", Status: "ok", IsCore: !h.gate.FailOpen()}
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	start := time.Now()
	err := h.gate.Probe(ctx)
	comp.Latency = time.Since(start)
	if err != nil {
		hlog.CtxWarnf(ctx, "health: moderation probe failed: %v", err)
		comp.Status = "down"
		comp.Error = err.Error()
	}
	return comp
}

func hasCriticalErrors(components []ComponentStatus) bool {
	for _, comp := range components {
		if (comp.IsCore && comp.Status != "ok") || comp.Status == "critical" {
			return true
		}
	}
	return false
}

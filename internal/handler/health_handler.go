// internal/handler/health_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// Pinger reports database health. A nil Pinger means history is kept in
// memory.
type Pinger interface {
	Health(ctx context.Context) error
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) CheckResult

type namedCheck struct {
	name string
	run  CheckFunc
	// critical checks gate readiness and the overall status.
	critical bool
}

// HealthHandler serves the probe endpoints.
type HealthHandler struct {
	config    *config.Config
	checks    []namedCheck
	startedAt time.Time
	logger    *utils.ServiceLogger
}

// NewHealthHandler registers the database check (critical) and the driver
// listing. Further checks are added with AddCheck.
func NewHealthHandler(db Pinger, config *config.Config, drivers func() []model.DriverKind, logger *zap.Logger) *HealthHandler {
	h := &HealthHandler{
		config:    config,
		startedAt: time.Now(),
		logger:    utils.NewServiceLogger(logger, "health-handler"),
	}
	h.AddCheck("database", true, h.databaseCheck(db))
	h.AddCheck("drivers", false, func(context.Context) CheckResult {
		kinds := drivers()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		return CheckResult{Status: statusHealthy, Data: map[string]any{"registered": names}}
	})
	return h
}

// AddCheck appends a named probe.
func (h *HealthHandler) AddCheck(name string, critical bool, check CheckFunc) {
	h.checks = append(h.checks, namedCheck{name: name, run: check, critical: critical})
}

func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

func (h *HealthHandler) databaseCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) CheckResult {
		if db == nil {
			return CheckResult{Status: statusHealthy, Message: "In-memory history"}
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := db.Health(ctx); err != nil {
			h.logger.Error("Database health check failed", zap.Error(err))
			return CheckResult{Status: statusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Status: statusHealthy, Message: "Database connection OK"}
	}
}

// run executes the checks. failed names the first unhealthy critical check.
func (h *HealthHandler) run(ctx context.Context, criticalOnly bool) (results map[string]CheckResult, failed string) {
	results = make(map[string]CheckResult, len(h.checks))
	for _, check := range h.checks {
		if criticalOnly && !check.critical {
			continue
		}
		result := check.run(ctx)
		results[check.name] = result
		if check.critical && result.Status != statusHealthy && failed == "" {
			failed = check.name
		}
	}
	return results, failed
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get overall service health including history storage and registered drivers
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	checks, failed := h.run(c.Request.Context(), false)
	health := &HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if failed != "" {
		health.Status = statusUnhealthy
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, health)
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if _, failed := h.run(c.Request.Context(), true); failed != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": failed + " not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) error

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	checks  map[string]HealthChecker
	version string
	timeout time.Duration
	logger  *slog.Logger
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checks map[string]HealthChecker, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		version: version,
		timeout: 3 * time.Second,
		logger:  logger.With("component", "health_handler"),
		started: time.Now(),
	}
}

// HealthResponse is the liveness body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// ReadinessResponse reports every dependency.
type ReadinessResponse struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Checks    map[string]HealthStatus `json:"checks"`
}

type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

// HealthCheck performs a basic health check
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   "cram-identity-gateway",
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// LivenessCheck reports that the process is serving.
// @Summary Liveness check
// @Tags health
// @Success 200 {object} HealthResponse
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck probes Postgres, Redis and Kratos concurrently.
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]HealthStatus, len(names))
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string, check HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := check(ctx)
			status := HealthStatus{Status: "healthy", Latency: time.Since(start).String()}
			if err != nil {
				status.Status = "unhealthy"
				status.Message = err.Error()
				h.logger.Warn("readiness check failed", "dependency", name, "error", err)
			}
			mu.Lock()
			results[name] = status
			mu.Unlock()
		}(name, h.checks[name])
	}
	wg.Wait()

	code := http.StatusOK
	overall := "ready"
	for _, s := range results {
		if s.Status != "healthy" {
			code = http.StatusServiceUnavailable
			overall = "not_ready"
			break
		}
	}

	return c.JSON(code, ReadinessResponse{Status: overall, Timestamp: time.Now(), Checks: results})
}

package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency checked by the health probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness for the coordinator and its
// stores.
type HealthHandler struct {
	deps      map[string]Pinger
	startTime time.Time
	version   string
}

// NewHealthHandler checks every dep by name, e.g. "database" and "ephemeral".
func NewHealthHandler(deps map[string]Pinger, version string) *HealthHandler {
	return &HealthHandler{deps: deps, startTime: time.Now(), version: version}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// pingAll pings every dependency and returns the first failing name.
func (h *HealthHandler) pingAll(ctx context.Context, checks map[string]string) (failed string) {
	for name, dep := range h.deps {
		err := dep.Ping(ctx)
		if err == nil {
			if checks != nil {
				checks[name] = "healthy"
			}
			continue
		}
		if checks != nil {
			checks[name] = "unhealthy: " + err.Error()
		}
		if failed == "" {
			failed = name
		}
	}
	return failed
}

// Liveness (k8s liveness probe)
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness reports every dependency plus heap usage.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps)+1)
	failed := h.pingAll(ctx, checks)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = strconv.FormatFloat(float64(m.Alloc)/(1<<20), 'f', 2, 64)

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	code := http.StatusOK
	if failed != "" {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Health is the quick combined check used by load balancers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if failed := h.pingAll(ctx, nil); failed != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": failed + " unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

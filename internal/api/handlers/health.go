package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stormfort/keygate/internal/state"
)

// Counter reports live record tallies. Satisfied by *state.Store.
type Counter interface {
	Count() state.Counts
}

// HealthHandler handles the liveness endpoint.
type HealthHandler struct {
	counter Counter
	started time.Time
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(counter Counter, version string) *HealthHandler {
	return &HealthHandler{
		counter: counter,
		started: time.Now(),
		version: version,
	}
}

// RegisterRoutes registers the health route on the engine root.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
}

// Health returns liveness plus record counts.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":  "ok",
			"version": h.version,
			"uptime":  time.Since(h.started).Round(time.Second).String(),
			"counts":  h.counter.Count(),
		},
	})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/stormfort/keygate/internal/models"
)

// LogSource reads the operation log. Satisfied by *state.Store.
type LogSource interface {
	Logs() []models.LogEntry
}

// LogsHandler exposes the operation log to admins, read-only.
type LogsHandler struct {
	source LogSource
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(source LogSource) *LogsHandler {
	return &LogsHandler{source: source}
}

// RegisterAdminRoutes registers the log route on an admin-gated group.
func (h *LogsHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/logs", h.List)
}

// List returns the operation log, oldest first.
// GET /api/logs
func (h *LogsHandler) List(c *gin.Context) {
	respondOK(c, h.source.Logs())
}

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/metrics"
	"github.com/stormfort/keygate/internal/models"
	"github.com/stormfort/keygate/internal/state"
)

// BindingStore defines the state operations used by the binding endpoints.
type BindingStore interface {
	Bind(userID, email, key string) (*state.BindResult, error)
	Unbind(userID, key string) (*state.BindResult, error)
	LookupByUser(userID string) (*state.KeyWithUsage, error)
	AppendLog(action, user, key, details string) models.LogEntry
}

// BindingsHandler handles the user-facing key binding endpoints.
type BindingsHandler struct {
	store   BindingStore
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewBindingsHandler creates a new BindingsHandler.
func NewBindingsHandler(store BindingStore, m *metrics.Metrics, logger zerolog.Logger) *BindingsHandler {
	return &BindingsHandler{
		store:   store,
		metrics: m,
		logger:  logger.With().Str("component", "bindings_handler").Logger(),
	}
}

// RegisterRoutes registers the unauthenticated binding routes.
func (h *BindingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/bind-key", h.Bind)
	r.POST("/unbind-key", h.Unbind)
	r.GET("/user-key/:userId", h.UserKey)
}

type bindRequest struct {
	UserID string `json:"userId" binding:"required"`
	Email  string `json:"email"`
	Key    string `json:"key" binding:"required"`
}

// bindFailureReason labels a bind error for metrics.
func bindFailureReason(err error) string {
	switch {
	case errors.Is(err, state.ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, state.ErrAlreadyBoundElsewhere):
		return "bound_elsewhere"
	case errors.Is(err, state.ErrAlreadyBoundHere):
		return "bound_here"
	case errors.Is(err, state.ErrCapacityFull):
		return "capacity_full"
	default:
		return "other"
	}
}

// Bind associates the calling user with a license key.
// POST /api/bind-key
func (h *BindingsHandler) Bind(c *gin.Context) {
	var req bindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, 400, "userId and key are required")
		return
	}

	res, err := h.store.Bind(req.UserID, req.Email, req.Key)
	if err != nil {
		h.metrics.BindFailures.WithLabelValues(bindFailureReason(err)).Inc()
		respondStateError(c, err)
		return
	}
	h.metrics.Binds.Inc()
	h.store.AppendLog("bind_key", req.UserID, req.Key, "")

	respondOK(c, res)
}

type unbindRequest struct {
	UserID string `json:"userId" binding:"required"`
	Key    string `json:"key"`
}

// Unbind removes the calling user's key binding. The key field is optional;
// when present it must match the bound key.
// POST /api/unbind-key
func (h *BindingsHandler) Unbind(c *gin.Context) {
	var req unbindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, 400, "userId is required")
		return
	}

	res, err := h.store.Unbind(req.UserID, req.Key)
	if err != nil {
		respondStateError(c, err)
		return
	}
	h.metrics.Unbinds.Inc()
	h.store.AppendLog("unbind_key", req.UserID, res.Key, "")

	respondOK(c, res)
}

// UserKey returns the key a user is bound to, with live usage counts.
// GET /api/user-key/:userId
func (h *BindingsHandler) UserKey(c *gin.Context) {
	userID := c.Param("userId")

	res, err := h.store.LookupByUser(userID)
	if err != nil {
		respondStateError(c, err)
		return
	}
	respondOK(c, res)
}

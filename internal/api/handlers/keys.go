package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/api/middleware"
	"github.com/stormfort/keygate/internal/metrics"
	"github.com/stormfort/keygate/internal/models"
	"github.com/stormfort/keygate/internal/state"
)

// KeyStore defines the state operations used by the key management endpoints.
type KeyStore interface {
	GenerateKey(note, createdBy string, expiryDays, maxUsers int) (*models.LicenseKey, error)
	ListKeys() []*state.KeyWithUsage
	DeleteKey(key string) ([]string, error)
	SetMaxUsers(key string, newMax int) (*models.LicenseKey, error)
	AppendLog(action, user, key, details string) models.LogEntry
}

// KeysHandler handles the admin key management endpoints.
type KeysHandler struct {
	store   KeyStore
	flusher Flusher
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewKeysHandler creates a new KeysHandler.
func NewKeysHandler(store KeyStore, flusher Flusher, m *metrics.Metrics, logger zerolog.Logger) *KeysHandler {
	return &KeysHandler{
		store:   store,
		flusher: flusher,
		metrics: m,
		logger:  logger.With().Str("component", "keys_handler").Logger(),
	}
}

// RegisterAdminRoutes registers the admin-gated key routes. The group must
// already carry SessionAuth + AdminRequired.
func (h *KeysHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/generate-key", h.Generate)
	r.GET("/keys", h.List)
	r.DELETE("/keys/:key", h.Delete)
	r.PUT("/keys/:key/max-users", h.SetMaxUsers)
}

// flushAudited writes an audit entry and persists state before the caller
// responds. Flush failures are logged and otherwise ignored.
func (h *KeysHandler) flushAudited(actor *models.Session, action, key, details string) {
	user := "admin"
	if actor != nil && actor.UserID != "" {
		user = actor.UserID
	}
	h.store.AppendLog(action, user, key, details)
	if err := h.flusher.Flush(); err != nil {
		h.metrics.StateSaveErrs.Inc()
		h.logger.Error().Err(err).Str("action", action).Msg("state flush failed")
		return
	}
	h.metrics.StateSaves.Inc()
}

type generateKeyRequest struct {
	Note       string `json:"note"`
	ExpiryDays int    `json:"expiryDays"`
	MaxUsers   int    `json:"maxUsers"`
}

// Generate creates a new license key.
// POST /api/generate-key
func (h *KeysHandler) Generate(c *gin.Context) {
	var req generateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, 400, "invalid request body")
		return
	}

	sess := middleware.GetSession(c)
	createdBy := "admin"
	if sess != nil && sess.UserID != "" {
		createdBy = sess.UserID
	}

	key, err := h.store.GenerateKey(req.Note, createdBy, req.ExpiryDays, req.MaxUsers)
	if err != nil {
		h.logger.Error().Err(err).Msg("key generation failed")
		respondStateError(c, err)
		return
	}
	h.metrics.KeysGenerated.Inc()

	h.flushAudited(sess, "generate_key", key.Key,
		fmt.Sprintf("note=%s maxUsers=%d", key.Note, key.MaxUsers))

	respondOK(c, key)
}

// List returns every key joined with its live binding state.
// GET /api/keys
func (h *KeysHandler) List(c *gin.Context) {
	respondOK(c, h.store.ListKeys())
}

// Delete removes a key and cascades all of its bindings.
// DELETE /api/keys/:key
func (h *KeysHandler) Delete(c *gin.Context) {
	key := c.Param("key")

	unbound, err := h.store.DeleteKey(key)
	if err != nil {
		respondStateError(c, err)
		return
	}
	h.metrics.KeysDeleted.Inc()

	h.flushAudited(middleware.GetSession(c), "delete_key", key,
		fmt.Sprintf("unboundUsers=%d", len(unbound)))

	respondOK(c, gin.H{"key": key, "unboundUsers": unbound})
}

type setMaxUsersRequest struct {
	MaxUsers int `json:"maxUsers" binding:"required"`
}

// SetMaxUsers resizes a key's binding capacity.
// PUT /api/keys/:key/max-users
func (h *KeysHandler) SetMaxUsers(c *gin.Context) {
	key := c.Param("key")

	var req setMaxUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, 400, "invalid request body")
		return
	}

	updated, err := h.store.SetMaxUsers(key, req.MaxUsers)
	if err != nil {
		respondStateError(c, err)
		return
	}

	h.flushAudited(middleware.GetSession(c), "set_max_users", key,
		fmt.Sprintf("maxUsers=%d", req.MaxUsers))

	respondOK(c, updated)
}

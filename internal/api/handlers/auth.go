package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/accountsvc"
	"github.com/stormfort/keygate/internal/auth"
	"github.com/stormfort/keygate/internal/config"
	"github.com/stormfort/keygate/internal/metrics"
	"github.com/stormfort/keygate/internal/models"
	"github.com/stormfort/keygate/internal/state"
)

// AuthStore defines the state operations used by the auth endpoints.
type AuthStore interface {
	VerifyKey(key string) (*state.KeyWithUsage, error)
	CreateAdminSession() (*models.Session, error)
	CreateUserSession(userID, email string, role models.SessionRole) (*models.Session, error)
	Bind(userID, email, key string) (*state.BindResult, error)
	AppendLog(action, user, key, details string) models.LogEntry
}

// AccountClient is the external account service surface used during login.
// Satisfied by *accountsvc.Client.
type AccountClient interface {
	Login(ctx context.Context, email, password string) (*accountsvc.LoginResult, error)
}

// AuthHandler handles key verification and session creation endpoints.
type AuthHandler struct {
	store    AuthStore
	accounts AccountClient
	cfg      config.ServerConfig
	flusher  Flusher
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, accounts AccountClient, cfg config.ServerConfig, flusher Flusher, m *metrics.Metrics, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		store:    store,
		accounts: accounts,
		cfg:      cfg,
		flusher:  flusher,
		metrics:  m,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterRoutes registers the unauthenticated auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/verify-key", h.VerifyKey)
	r.POST("/verify-admin-key", h.VerifyAdminKey)
	r.POST("/login", h.Login)
}

// mintAdminSession creates an admin session and persists it before the
// response goes out, so a crash right after login does not drop the session.
func (h *AuthHandler) mintAdminSession() (*models.Session, error) {
	sess, err := h.store.CreateAdminSession()
	if err != nil {
		return nil, err
	}
	h.metrics.SessionsMade.WithLabelValues(string(models.RoleAdmin)).Inc()
	h.store.AppendLog("admin_login", "admin", "", "")
	if err := h.flusher.Flush(); err != nil {
		h.metrics.StateSaveErrs.Inc()
		h.logger.Error().Err(err).Msg("state flush failed after admin login")
	} else {
		h.metrics.StateSaves.Inc()
	}
	return sess, nil
}

type verifyKeyRequest struct {
	Key string `json:"key" binding:"required"`
}

// VerifyKey validates a license key and reports its binding usage. If the
// supplied value is the admin key, an admin session is created instead.
// POST /api/verify-key
func (h *AuthHandler) VerifyKey(c *gin.Context) {
	var req verifyKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, 400, "key is required")
		return
	}

	if auth.CheckAdminKey(req.Key, h.cfg.AdminKeyHash) {
		sess, err := h.mintAdminSession()
		if err != nil {
			h.logger.Error().Err(err).Msg("admin session creation failed")
			respondError(c, 500, "internal error")
			return
		}
		respondOK(c, gin.H{"sessionId": sess.ID, "role": sess.Role})
		return
	}

	res, err := h.store.VerifyKey(req.Key)
	if err != nil {
		respondStateError(c, err)
		return
	}
	respondOK(c, res)
}

type verifyAdminKeyRequest struct {
	AdminKey string `json:"adminKey" binding:"required"`
}

// VerifyAdminKey performs an admin login with the dedicated admin key.
// POST /api/verify-admin-key
func (h *AuthHandler) VerifyAdminKey(c *gin.Context) {
	var req verifyAdminKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, 400, "adminKey is required")
		return
	}

	if !auth.CheckAdminKey(req.AdminKey, h.cfg.AdminKeyHash) {
		respondError(c, 400, "invalid admin key")
		return
	}

	sess, err := h.mintAdminSession()
	if err != nil {
		h.logger.Error().Err(err).Msg("admin session creation failed")
		respondError(c, 500, "internal error")
		return
	}
	respondOK(c, gin.H{"sessionId": sess.ID, "role": sess.Role})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Key      string `json:"key"`
}

// Login delegates authentication to the external account service, mints a
// session with the role decided by the admin allowlist, and optionally
// auto-binds a license key. Auto-bind failures are logged but never fail the
// login.
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, 400, "email and password are required")
		return
	}

	account, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn().Err(err).Msg("account service login failed")
		respondError(c, 400, "login failed")
		return
	}

	role := models.RoleUser
	if h.cfg.IsAdminEmail(account.Email) {
		role = models.RoleAdmin
	}

	sess, err := h.store.CreateUserSession(account.UserID, account.Email, role)
	if err != nil {
		h.logger.Error().Err(err).Msg("session creation failed")
		respondError(c, 500, "internal error")
		return
	}
	h.metrics.SessionsMade.WithLabelValues(string(role)).Inc()
	h.store.AppendLog("login", account.UserID, "", "")

	if req.Key != "" {
		if _, err := h.store.Bind(account.UserID, account.Email, req.Key); err != nil {
			h.logger.Warn().
				Err(err).
				Str("user_id", account.UserID).
				Msg("auto-bind during login failed")
		} else {
			h.metrics.Binds.Inc()
			h.store.AppendLog("bind_key", account.UserID, req.Key, "auto-bind on login")
		}
	}

	respondOK(c, gin.H{
		"sessionId": sess.ID,
		"role":      sess.Role,
		"authToken": account.AuthToken,
		"account":   account.Account,
	})
}

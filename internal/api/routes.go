// Package api provides the HTTP API for the KeyGate server.
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/accountsvc"
	"github.com/stormfort/keygate/internal/api/handlers"
	"github.com/stormfort/keygate/internal/api/middleware"
	"github.com/stormfort/keygate/internal/config"
	"github.com/stormfort/keygate/internal/metrics"
	"github.com/stormfort/keygate/internal/persist"
	"github.com/stormfort/keygate/internal/state"
)

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter assembles the full KeyGate HTTP surface.
func NewRouter(
	cfg config.ServerConfig,
	store *state.Store,
	gateway *persist.Gateway,
	accounts *accountsvc.Client,
	m *metrics.Metrics,
	version string,
	logger zerolog.Logger,
) (*Router, error) {
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestLogger(logger))

	// Public surface.
	handlers.NewHealthHandler(store, version).RegisterRoutes(r.Engine)
	r.Engine.GET("/metrics", gin.WrapH(m.Handler()))

	public := r.Engine.Group("/api")
	if cfg.AuthRateLimit > 0 {
		limit, err := middleware.NewRateLimiter(int64(cfg.AuthRateLimit), "1m")
		if err != nil {
			return nil, fmt.Errorf("build rate limiter: %w", err)
		}
		public.Use(limit)
	}

	handlers.NewAuthHandler(store, accounts, cfg, gateway, m, logger).RegisterRoutes(public)
	handlers.NewBindingsHandler(store, m, logger).RegisterRoutes(public)

	// Admin surface: same /api prefix, gated by session role.
	admin := r.Engine.Group("/api")
	admin.Use(middleware.SessionAuth(store, logger))
	admin.Use(middleware.AdminRequired(logger))

	handlers.NewKeysHandler(store, gateway, m, logger).RegisterAdminRoutes(admin)
	handlers.NewLogsHandler(store).RegisterAdminRoutes(admin)

	return r, nil
}

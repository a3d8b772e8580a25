// Package main is the entrypoint for the KeyGate server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/accountsvc"
	"github.com/stormfort/keygate/internal/api"
	"github.com/stormfort/keygate/internal/config"
	"github.com/stormfort/keygate/internal/metrics"
	"github.com/stormfort/keygate/internal/persist"
	"github.com/stormfort/keygate/internal/shutdown"
	"github.com/stormfort/keygate/internal/state"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting KeyGate server")

	cfg := config.LoadServerConfig()
	if cfg.AdminKeyHash == "" {
		logger.Warn().Msg("ADMIN_KEY_HASH not set, admin-key login disabled")
	}
	if cfg.AccountServiceURL == "" {
		logger.Fatal().Msg("ACCOUNT_SERVICE_URL environment variable is required")
		return 1
	}

	store := state.New(logger)
	gateway := persist.New(cfg.DataFile, store, logger)
	if err := gateway.Load(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load state file")
		return 1
	}

	m := metrics.New(store.Count)
	accounts := accountsvc.New(cfg.AccountServiceURL, logger)

	router, err := api.NewRouter(cfg, store, gateway, accounts, m, Version, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build router")
		return 1
	}

	// Periodic timers: session sweep and write-coalescing state flush.
	maxIdle := time.Duration(cfg.SessionMaxAgeHours) * time.Hour
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %ds", cfg.SweepIntervalSeconds), func() {
		store.SweepExpiredSessions(maxIdle)
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to schedule session sweep")
		return 1
	}
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %ds", cfg.SaveIntervalSeconds), func() {
		wrote, err := gateway.FlushIfDirty()
		if err != nil {
			m.StateSaveErrs.Inc()
			logger.Error().Err(err).Msg("periodic state flush failed")
			return
		}
		if wrote {
			m.StateSaves.Inc()
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to schedule state flush")
		return 1
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	mgr := shutdown.NewManager(30*time.Second, logger)
	mgr.Register("stop-http", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	mgr.Register("stop-timers", func(ctx context.Context) error {
		select {
		case <-scheduler.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	mgr.Register("flush-state", func(context.Context) error {
		return gateway.Flush()
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("HTTP server failed")
		mgr.Shutdown()
		return 1
	}

	mgr.Shutdown()
	return 0
}

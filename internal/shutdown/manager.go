// Package shutdown provides graceful shutdown coordination for the KeyGate
// server: drain HTTP, stop the timers, flush state to disk.
package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State represents the current shutdown state.
type State string

const (
	// StateRunning indicates the server is running normally.
	StateRunning State = "running"
	// StateDraining indicates the server is draining in-flight requests.
	StateDraining State = "draining"
	// StateFlushing indicates the final state flush is in progress.
	StateFlushing State = "flushing"
	// StateComplete indicates shutdown is complete.
	StateComplete State = "complete"
)

// Hook is one named shutdown step. Hooks run in registration order.
type Hook struct {
	Name string
	Run  func(ctx context.Context) error
}

// Manager coordinates graceful shutdown of the KeyGate server.
type Manager struct {
	timeout time.Duration
	logger  zerolog.Logger

	mu    sync.Mutex
	state State
	hooks []Hook
}

// NewManager creates a Manager with the given overall timeout.
func NewManager(timeout time.Duration, logger zerolog.Logger) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		timeout: timeout,
		logger:  logger.With().Str("component", "shutdown").Logger(),
		state:   StateRunning,
	}
}

// Register adds a shutdown hook. Must be called before Shutdown.
func (m *Manager) Register(name string, run func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, Hook{Name: name, Run: run})
}

// CurrentState returns the manager's state.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Shutdown runs all registered hooks within the configured timeout. Hook
// failures are logged and do not stop later hooks; the final flush must get
// its chance even if draining failed.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return
	}
	m.state = StateDraining
	hooks := append([]Hook(nil), m.hooks...)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.logger.Info().Int("hooks", len(hooks)).Msg("shutdown started")

	for i, h := range hooks {
		if i == len(hooks)-1 {
			m.setState(StateFlushing)
		}
		start := time.Now()
		if err := h.Run(ctx); err != nil {
			m.logger.Error().Err(err).Str("hook", h.Name).Msg("shutdown hook failed")
			continue
		}
		m.logger.Info().Str("hook", h.Name).Dur("duration", time.Since(start)).Msg("shutdown hook complete")
	}

	m.setState(StateComplete)
	m.logger.Info().Msg("shutdown complete")
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

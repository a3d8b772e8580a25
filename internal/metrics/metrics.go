// Package metrics exposes Prometheus metrics for the KeyGate server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stormfort/keygate/internal/state"
)

// Metrics holds the server's Prometheus collectors on a private registry so
// tests can construct independent instances.
type Metrics struct {
	registry *prometheus.Registry

	KeysGenerated prometheus.Counter
	KeysDeleted   prometheus.Counter
	Binds         prometheus.Counter
	Unbinds       prometheus.Counter
	BindFailures  *prometheus.CounterVec
	SessionsMade  *prometheus.CounterVec
	StateSaves    prometheus.Counter
	StateSaveErrs prometheus.Counter
}

// New creates the metric set. counts feeds the live gauges for keys,
// bindings, sessions, and log entries.
func New(counts func() state.Counts) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		KeysGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygate_keys_generated_total",
			Help: "License keys generated.",
		}),
		KeysDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygate_keys_deleted_total",
			Help: "License keys deleted.",
		}),
		Binds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygate_binds_total",
			Help: "Successful key bindings.",
		}),
		Unbinds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygate_unbinds_total",
			Help: "Successful key unbindings.",
		}),
		BindFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_bind_failures_total",
			Help: "Failed bind attempts by reason.",
		}, []string{"reason"}),
		SessionsMade: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keygate_sessions_created_total",
			Help: "Sessions created by role.",
		}, []string{"role"}),
		StateSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygate_state_saves_total",
			Help: "Successful state file writes.",
		}),
		StateSaveErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygate_state_save_failures_total",
			Help: "Failed state file writes.",
		}),
	}

	reg.MustRegister(
		m.KeysGenerated, m.KeysDeleted,
		m.Binds, m.Unbinds, m.BindFailures,
		m.SessionsMade,
		m.StateSaves, m.StateSaveErrs,
	)

	if counts != nil {
		reg.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "keygate_license_keys",
				Help: "License keys currently stored.",
			}, func() float64 { return float64(counts().Keys) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "keygate_bindings",
				Help: "Active user-to-key bindings.",
			}, func() float64 { return float64(counts().Bindings) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "keygate_sessions",
				Help: "Active sessions (including unswept idle ones).",
			}, func() float64 { return float64(counts().Sessions) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "keygate_operation_log_entries",
				Help: "Entries currently held in the operation log.",
			}, func() float64 { return float64(counts().Logs) }),
		)
	}

	return m
}

// Handler serves the /metrics endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package telemetry exposes Prometheus instrumentation for the kernel's
// optimizer and execution paths.
//
// Grounded on the metric set and label shape of
// _examples/chidi150c-coinbase/metrics.go (bot_trades_total{result},
// bot_exit_reasons_total{reason}, bot_walk_forward_fits_total), but
// reworked from that file's global-var-plus-init()-against-the-default-
// registry style into an instance held on a private prometheus.Registry:
// this package is imported by a library (internal/optimizer), not owned by a single long-running daemon with one
// /metrics endpoint, so a caller may want more than one independent set
// of counters in the same process (e.g. one per backtest run). No HTTP
// handler is started here; a caller wanting to serve /metrics wires
// promhttp.HandlerFor(m.Registry(), ...) itself.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms emitted during a backtest or
// optimizer run, registered against a private registry so multiple
// instances can coexist in the same process.
type Metrics struct {
	registry *prometheus.Registry

	policiesEvaluated  prometheus.Counter
	callsEvaluated     *prometheus.CounterVec
	exitReasons        *prometheus.CounterVec
	optimizerRuns      prometheus.Counter
	evaluationDuration prometheus.Histogram
}

// New builds and registers a fresh set of metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		policiesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "policies_evaluated_total",
			Help: "Number of risk policies evaluated across all optimizer runs.",
		}),
		callsEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calls_evaluated_total",
			Help: "Calls run through the execution engine, by result.",
		}, []string{"result"}),
		exitReasons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exit_reasons_total",
			Help: "Policy executions counted by terminal exit reason.",
		}, []string{"reason"}),
		optimizerRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optimizer_runs_total",
			Help: "Number of completed per-caller optimizer runs.",
		}),
		evaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "policy_evaluation_duration_seconds",
			Help:    "Wall-clock time to evaluate one policy across its assigned calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.policiesEvaluated,
		m.callsEvaluated,
		m.exitReasons,
		m.optimizerRuns,
		m.evaluationDuration,
	)
	return m
}

// Registry exposes the underlying registry so a caller can serve it over
// HTTP (promhttp.HandlerFor) or merge it into another registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObservePolicyEvaluated records one policy having finished evaluation
// against its assigned calls, along with how long that took.
func (m *Metrics) ObservePolicyEvaluated(d time.Duration) {
	m.policiesEvaluated.Inc()
	m.evaluationDuration.Observe(d.Seconds())
}

// IncCallEvaluated tallies a single call's execution result, e.g.
// "ok", "no_entry", or "error".
func (m *Metrics) IncCallEvaluated(result string) {
	m.callsEvaluated.WithLabelValues(result).Inc()
}

// IncExitReason tallies a policy execution's terminal exit reason.
func (m *Metrics) IncExitReason(reason string) {
	m.exitReasons.WithLabelValues(reason).Inc()
}

// IncOptimizerRun tallies one completed per-caller optimizer run.
func (m *Metrics) IncOptimizerRun() {
	m.optimizerRuns.Inc()
}

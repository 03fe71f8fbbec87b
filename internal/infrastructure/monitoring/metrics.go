package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Desktop metrics
	VisibleTasks    *prometheus.GaugeVec
	ActiveTasks     *prometheus.GaugeVec
	MinimizedTasks  *prometheus.GaugeVec
	MinimizeOutcome *prometheus.CounterVec
	PendingChanges  prometheus.Gauge
	LeftoverSweeps  prometheus.Counter

	// Transition metrics
	TransitionsStarted  prometheus.Counter
	TransitionsMerged   prometheus.Counter
	TransitionsFinished *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsSaved    prometheus.Counter
	SessionsRestored prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// New creates a metrics collector registered on the default registry
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a metrics collector registered on a specific registerer.
// Tests use a fresh registry per collector to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		VisibleTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "desktopd_visible_tasks",
				Help: "Number of visible freeform tasks per display",
			},
			[]string{"display"},
		),
		ActiveTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "desktopd_active_tasks",
				Help: "Number of active freeform tasks per display",
			},
			[]string{"display"},
		),
		MinimizedTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "desktopd_minimized_tasks",
				Help: "Number of minimized freeform tasks per display",
			},
			[]string{"display"},
		),
		MinimizeOutcome: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktopd_minimize_outcomes_total",
				Help: "Minimize requests by outcome (requested, confirmed, unconfirmed)",
			},
			[]string{"outcome"},
		),
		PendingChanges: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktopd_pending_minimize_changes",
				Help: "Minimize changes awaiting transition confirmation",
			},
		),
		LeftoverSweeps: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktopd_leftover_sweeps_total",
				Help: "Total leftover minimized-task cleanup sweeps that removed tasks",
			},
		),

		TransitionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktopd_transitions_started_total",
				Help: "Total transitions started",
			},
		),
		TransitionsMerged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktopd_transitions_merged_total",
				Help: "Total transitions merged into another transition",
			},
		),
		TransitionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktopd_transitions_finished_total",
				Help: "Total transitions finished, by result",
			},
			[]string{"result"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktopd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktopd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SessionsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktopd_sessions_saved_total",
				Help: "Total desktop sessions saved",
			},
		),
		SessionsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktopd_sessions_restored_total",
				Help: "Total desktop sessions restored",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktopd_ws_connections",
				Help: "Active WebSocket connections",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktopd_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// SetDisplayStats updates the per-display task gauges
func (m *Metrics) SetDisplayStats(display int, active, visible, minimized int) {
	label := strconv.Itoa(display)
	m.ActiveTasks.WithLabelValues(label).Set(float64(active))
	m.VisibleTasks.WithLabelValues(label).Set(float64(visible))
	m.MinimizedTasks.WithLabelValues(label).Set(float64(minimized))
}

// IncMinimizeOutcome records a minimize request outcome
func (m *Metrics) IncMinimizeOutcome(outcome string) {
	m.MinimizeOutcome.WithLabelValues(outcome).Inc()
}

// SetPendingChanges updates the pending minimize-change gauge
func (m *Metrics) SetPendingChanges(n int) {
	m.PendingChanges.Set(float64(n))
}

// RecordRequest records an HTTP request with its duration
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

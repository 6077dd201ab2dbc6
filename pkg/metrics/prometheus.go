// Package metrics provides Prometheus metrics for questboard runs.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Trigger label values.
const (
	TriggerComment = "comment"
	TriggerMerge   = "merge"
)

// Skip reason label values.
const (
	ReasonUnscored       = "unscored"
	ReasonAlreadyAwarded = "already_awarded"
)

// Manager owns the metrics recorded during one invocation. Every run is a
// short-lived process, so values are pushed to a Pushgateway at exit rather
// than scraped.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Award outcomes
	awardsApplied     *prometheus.CounterVec
	awardsSkipped     *prometheus.CounterVec
	pointsAwarded     *prometheus.CounterVec
	permissionDenials prometheus.Counter

	// Tracker API
	trackerRequests        *prometheus.CounterVec
	trackerRequestDuration *prometheus.HistogramVec

	// Ledger state
	ledgerUsers       prometheus.Gauge
	ledgerAwards      prometheus.Gauge
	ledgerSaveLatency prometheus.Histogram

	// Boards
	boardRenders *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton per process

// Custom registry to avoid default Go process metrics in pushed batches.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry for the singleton

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "questboard",
		subsystem:        "awards",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.awardsApplied = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "applied_total",
		Help:      "Awards credited to the ledger, by trigger",
	}, []string{"trigger"})

	m.awardsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skipped_total",
		Help:      "Awards not credited, by trigger and reason",
	}, []string{"trigger", "reason"})

	m.pointsAwarded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_total",
		Help:      "Points credited to the ledger, by trigger",
	}, []string{"trigger"})

	m.permissionDenials = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "permission_denied_total",
		Help:      "Comment awards rejected by the permission check",
	})

	m.trackerRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "tracker",
		Name:      "requests_total",
		Help:      "Issue tracker API requests by operation and status code",
	}, []string{"operation", "status_code"})

	m.trackerRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "tracker",
		Name:      "request_duration_milliseconds",
		Help:      "Issue tracker API request latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.ledgerUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ledger",
		Name:      "users",
		Help:      "Users present in the ledger after the run",
	})

	m.ledgerAwards = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ledger",
		Name:      "award_records",
		Help:      "Merge award records present in the ledger after the run",
	})

	m.ledgerSaveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "ledger",
		Name:      "save_latency_milliseconds",
		Help:      "Ledger file rewrite latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.boardRenders = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "board",
		Name:      "renders_total",
		Help:      "README board renders by board and whether the file changed",
	}, []string{"board", "changed"})
}

// RecordAwardApplied counts one credited award and its points.
func RecordAwardApplied(trigger string, points int) {
	globalManager.awardsApplied.WithLabelValues(trigger).Inc()
	globalManager.pointsAwarded.WithLabelValues(trigger).Add(float64(points))
}

// RecordAwardSkipped counts an award that was not credited.
func RecordAwardSkipped(trigger, reason string) {
	globalManager.awardsSkipped.WithLabelValues(trigger, reason).Inc()
}

// RecordPermissionDenied counts a rejected comment award.
func RecordPermissionDenied() {
	globalManager.permissionDenials.Inc()
}

// RecordTrackerRequest records one tracker API call.
func RecordTrackerRequest(operation, statusCode string, latencyMs float64) {
	globalManager.trackerRequests.WithLabelValues(operation, statusCode).Inc()
	globalManager.trackerRequestDuration.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateLedgerSize sets the ledger gauges.
func UpdateLedgerSize(users, awards int) {
	globalManager.ledgerUsers.Set(float64(users))
	globalManager.ledgerAwards.Set(float64(awards))
}

// RecordLedgerSave records a ledger rewrite latency.
func RecordLedgerSave(latencyMs float64) {
	globalManager.ledgerSaveLatency.Observe(latencyMs)
}

// RecordBoardRender counts one board render.
func RecordBoardRender(board string, changed bool) {
	globalManager.boardRenders.WithLabelValues(board, fmt.Sprintf("%t", changed)).Inc()
}

// Push sends the current registry contents to a Pushgateway under job.
func Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(customRegistry).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPush, err)
	}
	return nil
}

// Package metrics provides Prometheus metrics for the bandit orchestrator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the bandit service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics - decision loop activity
	selections     *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	rewardValue    prometheus.Histogram
	confidence     prometheus.Histogram
	retirements    *prometheus.CounterVec
	staleRewards   prometheus.Counter
	rejectedInputs *prometheus.CounterVec

	// Health Metrics - convergence and exploration
	convergence     prometheus.Gauge
	explorationRate prometheus.Gauge
	activeArms      prometheus.Gauge
	retiredArms     prometheus.Gauge
	pendingOutcomes prometheus.Gauge

	// Persistence Metrics - durable write pipeline
	persistQueueSize    prometheus.Gauge
	persistWrites       prometheus.Counter
	persistRetries      prometheus.Counter
	persistFailures     prometheus.Counter
	persistWriteLatency prometheus.Histogram
	persistDegraded     prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bandit",
		subsystem:        "orchestrator",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.selections = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "selections_total",
			Help:      "Total number of arm selections by arm",
		},
		[]string{"arm_id"},
	)

	m.resolutions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "resolutions_total",
			Help:      "Total number of resolved outcomes by arm and raw outcome",
		},
		[]string{"arm_id", "raw_outcome"},
	)

	m.rewardValue = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_value",
		Help:      "Distribution of resolved reward values",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	m.confidence = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_confidence",
		Help:      "Distribution of resolution confidence estimates",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	m.retirements = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "retirements_total",
			Help:      "Total number of arm retirements by reason",
		},
		[]string{"reason"},
	)

	m.staleRewards = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_rewards_total",
		Help:      "Total number of rewards recorded against retired arms",
	})

	m.rejectedInputs = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rejected_inputs_total",
			Help:      "Total number of rejected calls by error kind",
		},
		[]string{"kind"},
	)

	m.convergence = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "convergence_metric",
		Help:      "Fraction of historical pulls concentrated in the best active arm",
	})

	m.explorationRate = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recent_exploration_rate",
		Help:      "Fraction of recent pulls that explored a non-best arm",
	})

	m.activeArms = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_arms",
		Help:      "Current number of active arms",
	})

	m.retiredArms = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retired_arms",
		Help:      "Current number of retired arms",
	})

	m.pendingOutcomes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_outcomes",
		Help:      "Current number of outcomes awaiting resolution",
	})

	m.persistQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_queue_size",
		Help:      "Current size of the durable-write job queue",
	})

	m.persistWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_writes_total",
		Help:      "Total number of successful durable writes",
	})

	m.persistRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_retries_total",
		Help:      "Total number of retried durable writes",
	})

	m.persistFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_failures_total",
		Help:      "Total number of durable writes abandoned after retries",
	})

	m.persistWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_write_latency_milliseconds",
		Help:      "Durable write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.persistDegraded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_degraded",
		Help:      "1 when the persistence collaborator is unreachable, 0 otherwise",
	})
}

// RecordSelection increments the selection counter for an arm.
func RecordSelection(armID string) {
	globalManager.selections.WithLabelValues(armID).Inc()
}

// RecordResolution records a resolved outcome with its reward and confidence.
func RecordResolution(armID, rawOutcome string, reward, confidence float64) {
	globalManager.resolutions.WithLabelValues(armID, rawOutcome).Inc()
	globalManager.rewardValue.Observe(reward)
	globalManager.confidence.Observe(confidence)
}

// RecordRetirement increments the retirement counter for a reason code.
func RecordRetirement(reason string) {
	globalManager.retirements.WithLabelValues(reason).Inc()
}

// RecordStaleReward increments the stale reward counter.
func RecordStaleReward() {
	globalManager.staleRewards.Inc()
}

// RecordRejectedInput increments the rejected-input counter for an error kind.
func RecordRejectedInput(kind string) {
	globalManager.rejectedInputs.WithLabelValues(kind).Inc()
}

// UpdateConvergence sets the convergence metric gauge.
func UpdateConvergence(v float64) {
	globalManager.convergence.Set(v)
}

// UpdateExplorationRate sets the recent exploration rate gauge.
func UpdateExplorationRate(v float64) {
	globalManager.explorationRate.Set(v)
}

// UpdateActiveArms sets the active arm count gauge.
func UpdateActiveArms(count int) {
	globalManager.activeArms.Set(float64(count))
}

// UpdateRetiredArms sets the retired arm count gauge.
func UpdateRetiredArms(count int) {
	globalManager.retiredArms.Set(float64(count))
}

// UpdatePendingOutcomes sets the pending outcomes gauge.
func UpdatePendingOutcomes(count int) {
	globalManager.pendingOutcomes.Set(float64(count))
}

// UpdatePersistenceQueueSize sets the durable-write queue size gauge.
func UpdatePersistenceQueueSize(size int) {
	globalManager.persistQueueSize.Set(float64(size))
}

// RecordPersistenceWrite increments the successful write counter.
func RecordPersistenceWrite() {
	globalManager.persistWrites.Inc()
}

// RecordPersistenceRetry increments the retry counter.
func RecordPersistenceRetry() {
	globalManager.persistRetries.Inc()
}

// RecordPersistenceFailure increments the abandoned-write counter.
func RecordPersistenceFailure() {
	globalManager.persistFailures.Inc()
}

// RecordPersistenceWriteLatency records durable write latency.
func RecordPersistenceWriteLatency(latencyMs float64) {
	globalManager.persistWriteLatency.Observe(latencyMs)
}

// UpdatePersistenceDegraded sets the degraded flag gauge.
func UpdatePersistenceDegraded(degraded bool) {
	if degraded {
		globalManager.persistDegraded.Set(1)
	} else {
		globalManager.persistDegraded.Set(0)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus instrumentation for the planning
// engine. The engine is a run-to-completion batch process, so instead of
// serving /metrics the final registry state can be snapshotted to a
// textfile (node-exporter textfile-collector format) after a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the engine.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Scheduling
	activitiesScheduled   prometheus.Counter
	activitiesUnscheduled prometheus.Counter
	scheduleRecomputes    prometheus.Counter

	// Allocation
	candidatesEvaluated prometheus.Counter
	fallbackAllocations prometheus.Counter
	durationAdjustments prometheus.Counter

	// Risk optimization
	combinationsEvaluated prometheus.Counter
	combinationsSkipped   prometheus.Counter

	// External collaborators
	narrativeRequests *prometheus.CounterVec
	narrativeTokens   *prometheus.CounterVec
	exportDuration    *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry sets the registry collectors are registered with.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "girder",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.activitiesScheduled = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "schedule",
		Name:      "activities_scheduled_total",
		Help:      "Activities that received start and end dates.",
	})
	m.activitiesUnscheduled = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "schedule",
		Name:      "activities_unscheduled_total",
		Help:      "Activities left without dates after the forward pass.",
	})
	m.scheduleRecomputes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "schedule",
		Name:      "recomputes_total",
		Help:      "Full schedule recomputations triggered by duration adjustments.",
	})
	m.candidatesEvaluated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "allocate",
		Name:      "candidates_evaluated_total",
		Help:      "Resources considered across all allocation passes.",
	})
	m.fallbackAllocations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "allocate",
		Name:      "fallback_allocations_total",
		Help:      "Activities allocated without a skill match.",
	})
	m.durationAdjustments = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "allocate",
		Name:      "duration_adjustments_total",
		Help:      "Activities whose duration was revised after assignment.",
	})
	m.combinationsEvaluated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "risk",
		Name:      "combinations_evaluated_total",
		Help:      "Mitigation combinations scored by the optimizer.",
	})
	m.combinationsSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "risk",
		Name:      "combinations_skipped_total",
		Help:      "Mitigation combinations excluded by the budget constraint.",
	})
	m.narrativeRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "narrative",
		Name:      "requests_total",
		Help:      "Narrative generation requests by outcome.",
	}, []string{"outcome"})
	m.narrativeTokens = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "narrative",
		Name:      "tokens_total",
		Help:      "Tokens consumed by narrative generation, by direction.",
	}, []string{"direction"})
	m.exportDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "export",
		Name:      "duration_seconds",
		Help:      "Time spent writing artifacts, by kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"artifact"})

	return m
}

// Registry exposes the manager's registry for snapshotting.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Global manager instance; batch process, one registry per run.
var globalManager = NewManager() //nolint:gochecknoglobals // intentional singleton

// Default returns the global metrics manager.
func Default() *Manager {
	return globalManager
}

// RecordActivitiesScheduled adds to the scheduled-activities counter.
func RecordActivitiesScheduled(n int) {
	globalManager.activitiesScheduled.Add(float64(n))
}

// RecordActivitiesUnscheduled adds to the unscheduled-activities counter.
func RecordActivitiesUnscheduled(n int) {
	globalManager.activitiesUnscheduled.Add(float64(n))
}

// RecordScheduleRecompute counts one full schedule recomputation.
func RecordScheduleRecompute() {
	globalManager.scheduleRecomputes.Inc()
}

// RecordCandidatesEvaluated adds to the allocation candidate counter.
func RecordCandidatesEvaluated(n int) {
	globalManager.candidatesEvaluated.Add(float64(n))
}

// RecordFallbackAllocation counts one degraded allocation.
func RecordFallbackAllocation() {
	globalManager.fallbackAllocations.Inc()
}

// RecordDurationAdjustment counts one revised activity duration.
func RecordDurationAdjustment() {
	globalManager.durationAdjustments.Inc()
}

// RecordCombinationsEvaluated adds to the optimizer combination counter.
func RecordCombinationsEvaluated(n int) {
	globalManager.combinationsEvaluated.Add(float64(n))
}

// RecordCombinationsSkipped adds to the budget-skipped counter.
func RecordCombinationsSkipped(n int) {
	globalManager.combinationsSkipped.Add(float64(n))
}

// RecordNarrativeRequest counts a narrative call by outcome
// ("ok", "error" or "fallback").
func RecordNarrativeRequest(outcome string) {
	globalManager.narrativeRequests.WithLabelValues(outcome).Inc()
}

// RecordNarrativeTokens accounts token usage ("input" or "output").
func RecordNarrativeTokens(direction string, n int) {
	globalManager.narrativeTokens.WithLabelValues(direction).Add(float64(n))
}

// ObserveExport records the time taken to write one artifact.
func ObserveExport(artifact string, d time.Duration) {
	globalManager.exportDuration.WithLabelValues(artifact).Observe(d.Seconds())
}

// Snapshot writes the current registry state to path in the Prometheus
// textfile-collector format.
func Snapshot(path string) error {
	return prometheus.WriteToTextfile(path, globalManager.registry)
}

// Package metrics provides custom Prometheus metrics for the qPCR planner.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlannerMetrics contains all Prometheus metrics related to planning operations.
type PlannerMetrics struct {
	PlanRequests    *prometheus.CounterVec
	PlanDuration    prometheus.Histogram
	PlatesAllocated prometheus.Histogram
	WellsPlaced     prometheus.Counter
	registry        *prometheus.Registry
}

// NewPlannerMetrics creates a new instance of PlannerMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewPlannerMetrics(registry *prometheus.Registry) (*PlannerMetrics, error) {
	m := &PlannerMetrics{registry: registry}
	m.initMetrics()

	collectors := []prometheus.Collector{
		m.PlanRequests,
		m.PlanDuration,
		m.PlatesAllocated,
		m.WellsPlaced,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register planner metrics: %w", err)
		}
	}
	return m, nil
}

// initMetrics initializes all metrics for PlannerMetrics.
func (m *PlannerMetrics) initMetrics() {
	m.PlanRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_requests_total",
		Help: "Total number of planning requests by status (success or error)",
	}, []string{"status"})

	m.PlanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_request_duration_seconds",
		Help:    "Duration of planning requests in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	m.PlatesAllocated = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_plates_allocated",
		Help:    "Number of plates allocated per successful planning request",
		Buckets: prometheus.LinearBuckets(1, 1, 12),
	})

	m.WellsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_wells_placed_total",
		Help: "Total number of wells placed across all successful planning requests",
	})
}

// RecordSuccess records a completed planning request.
func (m *PlannerMetrics) RecordSuccess(duration time.Duration, plates, wells int) {
	m.PlanRequests.WithLabelValues("success").Inc()
	m.PlanDuration.Observe(duration.Seconds())
	m.PlatesAllocated.Observe(float64(plates))
	m.WellsPlaced.Add(float64(wells))
}

// RecordError records a rejected planning request.
func (m *PlannerMetrics) RecordError(duration time.Duration) {
	m.PlanRequests.WithLabelValues("error").Inc()
	m.PlanDuration.Observe(duration.Seconds())
}

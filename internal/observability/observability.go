// Package observability provides metrics and monitoring capabilities for the
// qPCR planner service.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platewell/qpcr-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Planner  *metrics.PlannerMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	plannerMetrics, err := metrics.NewPlannerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create planner metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Planner:  plannerMetrics,
	}, nil
}

// Handler returns an http.Handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

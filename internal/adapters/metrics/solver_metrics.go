package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SolverMetricsCollector handles all LP solve metrics
type SolverMetricsCollector struct {
	// Solve execution metrics
	solveDuration *prometheus.HistogramVec
	solvesTotal   *prometheus.CounterVec

	// Compiled model size metrics
	modelVariables   prometheus.Histogram
	modelConstraints prometheus.Histogram
}

// NewSolverMetricsCollector creates a new solver metrics collector
func NewSolverMetricsCollector() *SolverMetricsCollector {
	return &SolverMetricsCollector{
		// Solve duration histogram by outcome
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "LP solve duration distribution by outcome",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0},
			},
			[]string{"status"},
		),

		// Total solves by outcome (optimal, diagnosed, failed)
		solvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solves_total",
				Help:      "Total number of solve passes by outcome",
			},
			[]string{"status"},
		),

		// Model width histogram
		modelVariables: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "model_variables",
				Help:      "Number of LP variables per compiled model",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		// Model height histogram
		modelConstraints: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "model_constraints",
				Help:      "Number of LP constraints per compiled model",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// Register registers all solver metrics with the Prometheus registry
func (c *SolverMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.solveDuration,
		c.solvesTotal,
		c.modelVariables,
		c.modelConstraints,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordSolve records one solve pass outcome
func (c *SolverMetricsCollector) RecordSolve(status string, seconds float64) {
	c.solveDuration.WithLabelValues(status).Observe(seconds)
	c.solvesTotal.WithLabelValues(status).Inc()
}

// RecordModelSize records the dimensions of one compiled model
func (c *SolverMetricsCollector) RecordModelSize(variables, constraints int) {
	c.modelVariables.Observe(float64(variables))
	c.modelConstraints.Observe(float64(constraints))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AccessibilityMetricsCollector handles all milestone engine metrics
type AccessibilityMetricsCollector struct {
	// Census gauges from the last computation
	accessibleObjects  prometheus.Gauge
	automatableObjects prometheus.Gauge
	totalObjects       prometheus.Gauge
	milestoneCount     prometheus.Gauge

	// Computation duration histogram
	computeDuration prometheus.Histogram
}

// NewAccessibilityMetricsCollector creates a new accessibility metrics collector
func NewAccessibilityMetricsCollector() *AccessibilityMetricsCollector {
	return &AccessibilityMetricsCollector{
		accessibleObjects: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "accessible_objects",
				Help:      "Objects reachable under the current milestone configuration",
			},
		),

		automatableObjects: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "automatable_objects",
				Help:      "Objects with a fully automated production path",
			},
		),

		totalObjects: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "total_objects",
				Help:      "Objects in the loaded database",
			},
		),

		milestoneCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "milestones_configured",
				Help:      "Milestones in the current configuration",
			},
		),

		computeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "milestone_compute_duration_seconds",
				Help:      "Milestone accessibility computation duration distribution",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		),
	}
}

// Register registers all accessibility metrics with the Prometheus registry
func (c *AccessibilityMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.accessibleObjects,
		c.automatableObjects,
		c.totalObjects,
		c.milestoneCount,
		c.computeDuration,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordAccessibility records the census of the last milestone computation
func (c *AccessibilityMetricsCollector) RecordAccessibility(accessible, automatable, total, milestones int) {
	c.accessibleObjects.Set(float64(accessible))
	c.automatableObjects.Set(float64(automatable))
	c.totalObjects.Set(float64(total))
	c.milestoneCount.Set(float64(milestones))
}

// RecordMilestoneCompute records one computation duration
func (c *AccessibilityMetricsCollector) RecordMilestoneCompute(seconds float64) {
	c.computeDuration.Observe(seconds)
}

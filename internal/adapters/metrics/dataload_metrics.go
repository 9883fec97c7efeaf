package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DataloadMetricsCollector handles all game-data loading metrics
type DataloadMetricsCollector struct {
	// Load metrics
	loadsTotal   *prometheus.CounterVec
	loadDuration prometheus.Histogram

	// Definition cache metrics
	cacheLookups *prometheus.CounterVec
}

// NewDataloadMetricsCollector creates a new dataload metrics collector
func NewDataloadMetricsCollector() *DataloadMetricsCollector {
	return &DataloadMetricsCollector{
		// Total loads by status (ok, invalid, error)
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dataload_total",
				Help:      "Total number of game-data loads by status",
			},
			[]string{"status"},
		),

		// Load duration histogram
		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dataload_duration_seconds",
				Help:      "Game-data load duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
		),

		// Cache lookup counter by result
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dataload_cache_lookups_total",
				Help:      "Total number of definition cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Register registers all dataload metrics with the Prometheus registry
func (c *DataloadMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.loadsTotal,
		c.loadDuration,
		c.cacheLookups,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordLoad records one game-data load
func (c *DataloadMetricsCollector) RecordLoad(status string, seconds float64) {
	c.loadsTotal.WithLabelValues(status).Inc()
	c.loadDuration.Observe(seconds)
}

// RecordCacheLookup records one definition cache lookup
func (c *DataloadMetricsCollector) RecordCacheLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

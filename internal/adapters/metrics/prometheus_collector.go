package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "beltplan"
	// Subsystem for planner core metrics
	subsystem = "core"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalSolveCollector is the singleton solve metrics collector
	// Set by SetGlobalSolveCollector() when metrics are enabled
	globalSolveCollector SolveMetricsRecorder

	// globalAccessibilityCollector is the singleton accessibility metrics
	// collector, set by SetGlobalAccessibilityCollector() when metrics are
	// enabled
	globalAccessibilityCollector AccessibilityMetricsRecorder

	// globalDataloadCollector is the singleton game-data load metrics
	// collector, set by SetGlobalDataloadCollector() when metrics are
	// enabled
	globalDataloadCollector DataloadMetricsRecorder
)

// SolveMetricsRecorder defines the interface for recording LP solve events
// This interface is used by application code to record metrics
type SolveMetricsRecorder interface {
	RecordSolve(status string, seconds float64)
	RecordModelSize(variables, constraints int)
}

// AccessibilityMetricsRecorder defines the interface for recording
// milestone engine events
type AccessibilityMetricsRecorder interface {
	RecordAccessibility(accessible, automatable, total, milestones int)
	RecordMilestoneCompute(seconds float64)
}

// DataloadMetricsRecorder defines the interface for recording game-data
// load events
type DataloadMetricsRecorder interface {
	RecordLoad(status string, seconds float64)
	RecordCacheLookup(hit bool)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalSolveCollector sets the global solve metrics collector
// This should be called after the collector is created and registered
func SetGlobalSolveCollector(collector SolveMetricsRecorder) {
	globalSolveCollector = collector
}

// RecordSolve records one solve pass outcome globally
func RecordSolve(status string, seconds float64) {
	if globalSolveCollector != nil {
		globalSolveCollector.RecordSolve(status, seconds)
	}
}

// RecordModelSize records the compiled LP dimensions globally
func RecordModelSize(variables, constraints int) {
	if globalSolveCollector != nil {
		globalSolveCollector.RecordModelSize(variables, constraints)
	}
}

// SetGlobalAccessibilityCollector sets the global accessibility metrics
// collector
func SetGlobalAccessibilityCollector(collector AccessibilityMetricsRecorder) {
	globalAccessibilityCollector = collector
}

// RecordAccessibility records the accessibility census of the last
// milestone computation globally
func RecordAccessibility(accessible, automatable, total, milestones int) {
	if globalAccessibilityCollector != nil {
		globalAccessibilityCollector.RecordAccessibility(accessible, automatable, total, milestones)
	}
}

// RecordMilestoneCompute records one milestone computation duration globally
func RecordMilestoneCompute(seconds float64) {
	if globalAccessibilityCollector != nil {
		globalAccessibilityCollector.RecordMilestoneCompute(seconds)
	}
}

// SetGlobalDataloadCollector sets the global game-data load metrics
// collector
func SetGlobalDataloadCollector(collector DataloadMetricsRecorder) {
	globalDataloadCollector = collector
}

// RecordLoad records one game-data load globally
func RecordLoad(status string, seconds float64) {
	if globalDataloadCollector != nil {
		globalDataloadCollector.RecordLoad(status, seconds)
	}
}

// RecordCacheLookup records one definition cache lookup globally
func RecordCacheLookup(hit bool) {
	if globalDataloadCollector != nil {
		globalDataloadCollector.RecordCacheLookup(hit)
	}
}

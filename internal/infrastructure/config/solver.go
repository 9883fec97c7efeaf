package config

import "time"

// SolverConfig holds planning solver configuration
type SolverConfig struct {
	// Deadline for a single page solve. Large pages with deep nesting and
	// quality decomposition can build sizable linear programs.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// Solve every page after loading a project
	SolveOnOpen bool `mapstructure:"solve_on_open"`
}

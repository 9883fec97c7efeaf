package config

import "time"

// DataConfig holds game definition loading configuration
type DataConfig struct {
	// Path to the game definition JSON file
	Path string `mapstructure:"path"`

	// Number of parsed game databases kept in memory. Each cache entry is
	// keyed by file path and modification time, so edits reload naturally.
	CacheSize int `mapstructure:"cache_size" validate:"min=1"`

	// File watch settings for live reload
	Watch WatchConfig `mapstructure:"watch"`
}

// WatchConfig holds file watching configuration for live reload
type WatchConfig struct {
	// Enable watching the game definition for changes
	Enabled bool `mapstructure:"enabled"`

	// Quiet period after the last write before reloading. Editors often
	// produce several write events per save.
	Debounce time.Duration `mapstructure:"debounce"`

	// Rate limit for reloads triggered by file changes
	ReloadRate RateLimitConfig `mapstructure:"reload_rate"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum events per second
	Requests int `mapstructure:"requests" validate:"min=1"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`
}

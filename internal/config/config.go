// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// DimensionConfig declares one comparison axis and its aggregation weight.
// The dimension set is process-wide configuration: an administrative concern,
// read-only to the ranking engine.
type DimensionConfig struct {
	ID     string  `koanf:"id"`
	Name   string  `koanf:"name"`
	Weight float64 `koanf:"weight"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: "memory" or "sqlite".
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is "sqlite".
	SQLitePath string `koanf:"sqlite_path"`

	// RebuildQueueSize bounds the resync job queue.
	RebuildQueueSize int `koanf:"rebuild_queue_size"`

	// RebuildWorkerCount sets the number of rebuild workers.
	RebuildWorkerCount int `koanf:"rebuild_worker_count"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Dimensions is the full set of comparison axes with their weights.
	Dimensions []DimensionConfig `koanf:"dimensions"`
}

// Store backend names.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9090",
		Store:              StoreMemory,
		SQLitePath:         "meeplerank.db",
		RebuildQueueSize:   1024,
		RebuildWorkerCount: runtime.NumCPU(),
		DedupeSize:         50_000,
		Dimensions: []DimensionConfig{
			{ID: "fun", Name: "Fun", Weight: 30},
			{ID: "depth", Name: "Strategic depth", Weight: 25},
			{ID: "replayability", Name: "Replayability", Weight: 20},
			{ID: "theme", Name: "Theme", Weight: 15},
			{ID: "components", Name: "Components", Weight: 10},
		},
	}
}

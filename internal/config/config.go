// Package config loads the YAML configuration for an overlay node: its
// gossip topics, HyParView tuning, scheduler concurrency, and telemetry.
package config

import "time"

// CurrentConfigVersion is the latest configuration schema version. Bump
// this when adding fields that require migration.
const CurrentConfigVersion = 1

// Config is the unified configuration for the overlaynode binary.
type Config struct {
	Version   int             `yaml:"version,omitempty"`
	Identity  IdentityConfig  `yaml:"identity"`
	Topics    []TopicConfig   `yaml:"topics"`
	Network   NetworkConfig   `yaml:"network"`
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// IdentityConfig holds this node's key material location.
type IdentityConfig struct {
	KeyFile string `yaml:"key_file"`
}

// TopicConfig configures one gossip overlay topic.
type TopicConfig struct {
	Name      string   `yaml:"name"`
	Bootstrap []string `yaml:"bootstrap"`
}

// NetworkConfig holds the HyParView tuning parameters shared by every topic
// on this node.
type NetworkConfig struct {
	MinActiveViewSize    int           `yaml:"min_active_view_size"`
	MaxActiveViewSize    int           `yaml:"max_active_view_size"`
	MaxPassiveViewSize   int           `yaml:"max_passive_view_size"`
	ForwardJoinHopsCount int           `yaml:"forward_join_hops_count"`
	ShuffleInterval      time.Duration `yaml:"shuffle_interval"`
	ShuffleProbability   float64       `yaml:"shuffle_probability"`
	ShuffleSampleSize    int           `yaml:"shuffle_sample_size"`
	ShufflePassiveSize   int           `yaml:"shuffle_passive_size"`
	ShuffleHopsCount     int           `yaml:"shuffle_hops_count"`
}

// SchedulerConfig holds the parallel transaction scheduler's tuning.
// Zero values are replaced with runtime-derived defaults at load time.
type SchedulerConfig struct {
	// RowWorkers is the configured intra-row worker count; 0 is replaced by
	// runtime.GOMAXPROCS(0) at load time. scheduler.ExecuteMany does not
	// take this value: it sizes its row pool from runtime.GOMAXPROCS(0).
	RowWorkers int `yaml:"row_workers,omitempty"`
}

// TelemetryConfig holds observability settings. Disabled by default.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"` // default: "127.0.0.1:9091"
}

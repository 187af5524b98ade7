package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// checkConfigFilePermissions returns an error if a config file has overly
// permissive permissions (any group/world bit set), which makes Load fail. Config files carry bootstrap peer
// addresses and a key file path.
func checkConfigFilePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil // file access errors are handled by the caller
	}
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %04o; expected 0600 — fix with: chmod 600 %s", path, mode, path)
	}
	return nil
}

// Load reads and validates the overlay node configuration at path, filling
// in defaults for anything left unset.
func Load(path string) (*Config, error) {
	if err := checkConfigFilePermissions(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Version > CurrentConfigVersion {
		return nil, fmt.Errorf("%w: version %d is newer than supported version %d", ErrConfigVersionTooNew, cfg.Version, CurrentConfigVersion)
	}
	if len(cfg.Topics) == 0 {
		return nil, ErrNoTopics
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills zero-valued tuning fields with the HyParView paper's
// recommended defaults and a CPU-derived row worker count.
func applyDefaults(cfg *Config) {
	n := &cfg.Network
	if n.MinActiveViewSize == 0 {
		n.MinActiveViewSize = 3
	}
	if n.MaxActiveViewSize == 0 {
		n.MaxActiveViewSize = 6
	}
	if n.MaxPassiveViewSize == 0 {
		n.MaxPassiveViewSize = 30
	}
	if n.ForwardJoinHopsCount == 0 {
		n.ForwardJoinHopsCount = 6
	}
	if n.ShuffleInterval == 0 {
		n.ShuffleInterval = 10 * time.Second
	}
	if n.ShuffleProbability == 0 {
		n.ShuffleProbability = 1.0
	}
	if n.ShuffleSampleSize == 0 {
		n.ShuffleSampleSize = 6
	}
	if n.ShufflePassiveSize == 0 {
		n.ShufflePassiveSize = 6
	}
	if n.ShuffleHopsCount == 0 {
		n.ShuffleHopsCount = 3
	}

	if cfg.Scheduler.RowWorkers == 0 {
		cfg.Scheduler.RowWorkers = runtime.GOMAXPROCS(0)
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:9091"
	}
	if cfg.Identity.KeyFile == "" {
		cfg.Identity.KeyFile = "overlaynode.key"
	}
}

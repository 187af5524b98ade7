package overlay

import "time"

// TopicConfig scopes all overlay state for one logical broadcast channel.
// The name is carried on every wire message so the network layer can
// demultiplex per topic.
type TopicConfig struct {
	Name      string   `yaml:"name"`
	Bootstrap []string `yaml:"bootstrap"` // multiaddr strings; New dials the parsed addresses passed to it, not this field
}

// NetworkConfig holds the HyParView tuning parameters shared by every topic
// on a node.
type NetworkConfig struct {
	MinActiveViewSize  int `yaml:"min_active_view_size"`
	MaxActiveViewSize  int `yaml:"max_active_view_size"`
	MaxPassiveViewSize int `yaml:"max_passive_view_size"`

	// ForwardJoinHopsCount (N) bounds how far a JOIN advertisement
	// propagates. The HyParView paper recommends 6.
	ForwardJoinHopsCount int `yaml:"forward_join_hops_count"`

	ShuffleInterval    time.Duration `yaml:"shuffle_interval"`
	ShuffleProbability float64       `yaml:"shuffle_probability"`
	ShuffleSampleSize  int           `yaml:"shuffle_sample_size"`
	ShufflePassiveSize int           `yaml:"shuffle_passive_size"`
	ShuffleHopsCount   int           `yaml:"shuffle_hops_count"`
}

// DefaultNetworkConfig returns the HyParView paper's recommended defaults,
// scaled for a small-to-medium overlay.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		MinActiveViewSize:    3,
		MaxActiveViewSize:    6,
		MaxPassiveViewSize:   30,
		ForwardJoinHopsCount: 6,
		ShuffleInterval:      10 * time.Second,
		ShuffleProbability:   1.0,
		ShuffleSampleSize:    6,
		ShufflePassiveSize:   6,
		ShuffleHopsCount:     3,
	}
}

func (c NetworkConfig) maxActiveViewSize() int  { return c.MaxActiveViewSize }
func (c NetworkConfig) minActiveViewSize() int  { return c.MinActiveViewSize }
func (c NetworkConfig) maxPassiveViewSize() int { return c.MaxPassiveViewSize }

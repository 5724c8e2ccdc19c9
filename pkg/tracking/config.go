package tracking

import (
	"time"
)

// Placement policy names.
const (
	PolicyBoundingRegion = "bounding"
	PolicyPointPair      = "pair"
)

// Config holds all tunable parameters for overlay tracking
type Config struct {
	// Smoothing
	SmoothingAlpha float64 `yaml:"smoothing_alpha" json:"smoothing_alpha" validate:"gt=0,lte=1"` // EMA weight of the newest sample

	// Presence
	PresenceTimeout time.Duration `yaml:"presence_timeout" json:"presence_timeout" validate:"gt=0"` // Silence before declaring the face lost
	CheckInterval   time.Duration `yaml:"check_interval" json:"check_interval" validate:"gt=0"`     // How often the loss check runs

	// Placement
	Policy        string  `yaml:"policy" json:"policy" validate:"oneof=bounding pair"`
	RegionPadding float64 `yaml:"region_padding" json:"region_padding" validate:"gt=0"` // Bounding-region width multiplier
	PairScale     float64 `yaml:"pair_scale" json:"pair_scale" validate:"gt=0"`         // Point-pair width multiplier
	MirrorPair    bool    `yaml:"mirror_pair" json:"mirror_pair"`                       // Flip the right-hand pair instance
}

// DefaultConfig returns the recommended configuration
func DefaultConfig() Config {
	return Config{
		SmoothingAlpha: 0.2, // 20% new, 80% old

		PresenceTimeout: 1000 * time.Millisecond,
		CheckInterval:   300 * time.Millisecond,

		Policy:        PolicyBoundingRegion,
		RegionPadding: 1.8,
		PairScale:     0.6,
		MirrorPair:    true,
	}
}

// CalmConfig returns a configuration for steadier, slower-moving overlays
func CalmConfig() Config {
	cfg := DefaultConfig()
	cfg.SmoothingAlpha = 0.12
	cfg.PresenceTimeout = 1500 * time.Millisecond
	return cfg
}

// SnappyConfig returns a configuration that follows the face closely
func SnappyConfig() Config {
	cfg := DefaultConfig()
	cfg.SmoothingAlpha = 0.4
	cfg.PresenceTimeout = 600 * time.Millisecond
	cfg.CheckInterval = 200 * time.Millisecond
	return cfg
}

// Preset returns a named configuration, or false if unknown.
func Preset(name string) (Config, bool) {
	switch name {
	case "", "default":
		return DefaultConfig(), true
	case "calm":
		return CalmConfig(), true
	case "snappy":
		return SnappyConfig(), true
	}
	return Config{}, false
}

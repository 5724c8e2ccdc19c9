// Package camera provides the live video frame source and its
// runtime-configurable settings.
package camera

import (
	"github.com/teslashibe/go-facefilter/internal/config"
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// Device index passed to the capture backend (0 = first camera).
	Device int `yaml:"device" json:"device" validate:"gte=0"`

	// === Resolution ===
	Width     int `yaml:"width" json:"width" validate:"gte=160,lte=3840"`     // Frame width in pixels
	Height    int `yaml:"height" json:"height" validate:"gte=120,lte=2160"`   // Frame height in pixels
	Framerate int `yaml:"framerate" json:"framerate" validate:"gte=1,lte=60"` // Target FPS
	Quality   int `yaml:"quality" json:"quality" validate:"gte=1,lte=100"`    // JPEG quality for the preview stream

	// Mirror flips frames horizontally so the preview reads like a mirror.
	// Landmarks are detected on the flipped frame.
	Mirror bool `yaml:"mirror" json:"mirror"`
}

// DefaultConfig returns the recommended configuration: VGA, mirrored.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
		Mirror:    true,
	}
}

// Validate checks the config values against their allowed ranges.
func (c Config) Validate() error {
	return config.Validate(c)
}

// Package facefilter wires the camera, landmark detector, overlay asset,
// tracking session and web dashboard into one application.
package facefilter

import (
	"github.com/teslashibe/go-facefilter/internal/config"
	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/session"
	"github.com/teslashibe/go-facefilter/pkg/tracking/detection"
)

// Detector backends.
const (
	DetectorYuNet = "yunet"
	DetectorPigo  = "pigo"
	DetectorMock  = "mock"
)

// Default configuration values.
const (
	DefaultPort  = "8181"
	DefaultAsset = "assets/mask.png"
)

// Config holds all configuration for the face filter application.
// Flag parsing is done in cmd/facefilter/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug" json:"debug"`

	// DebugTracking enables per-frame detector logs.
	DebugTracking bool `yaml:"debug_tracking" json:"debug_tracking"`

	LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Dashboard
	Port      string `yaml:"port" json:"port" validate:"required,numeric"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`

	// Asset is the overlay image, an http(s) URL or a file path.
	Asset string `yaml:"asset" json:"asset"`

	// Detector backend and its settings.
	Detector string                `yaml:"detector" json:"detector" validate:"oneof=yunet pigo mock"`
	YuNet    detection.YuNetConfig `yaml:"yunet" json:"yunet"`
	Pigo     detection.PigoConfig  `yaml:"pigo" json:"pigo"`

	// Camera settings. MockCamera generates synthetic frames instead of
	// opening a device.
	Camera        camera.Config `yaml:"camera" json:"camera"`
	MockCamera    bool          `yaml:"mock_camera" json:"mock_camera"`
	CameraOnStart bool          `yaml:"camera_on_start" json:"camera_on_start"`

	Session session.Config `yaml:"session" json:"session"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		Port:          DefaultPort,
		Asset:         DefaultAsset,
		Detector:      DetectorYuNet,
		YuNet:         detection.DefaultYuNetConfig(),
		Pigo:          detection.DefaultPigoConfig(),
		Camera:        camera.DefaultConfig(),
		CameraOnStart: true,
		Session:       session.DefaultConfig(),
	}
}

// LoadFile applies a YAML config file over c.
func (c *Config) LoadFile(path string) error {
	return config.LoadFile(path, c)
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after the config file and before flags.
func (c *Config) LoadEnvConfig() {
	c.Port = config.String("FACEFILTER_PORT", c.Port)
	c.Asset = config.String("FACEFILTER_ASSET", c.Asset)
	c.Detector = config.String("FACEFILTER_DETECTOR", c.Detector)
	c.Camera.Device = config.Int("FACEFILTER_CAMERA", c.Camera.Device)
	c.LogLevel = config.String("LOG_LEVEL", c.LogLevel)
	c.Debug = config.Bool("FACEFILTER_DEBUG", c.Debug)
	c.MockCamera = config.Bool("FACEFILTER_MOCK_CAMERA", c.MockCamera)

	tr := &c.Session.Tracking
	tr.SmoothingAlpha = config.Float("FACEFILTER_SMOOTHING", tr.SmoothingAlpha)
	tr.PresenceTimeout = config.Duration("FACEFILTER_PRESENCE_TIMEOUT", tr.PresenceTimeout)
	tr.CheckInterval = config.Duration("FACEFILTER_CHECK_INTERVAL", tr.CheckInterval)

	// The model path belongs to whichever backend is selected
	switch c.Detector {
	case DetectorYuNet:
		c.YuNet.ModelPath = config.String("FACEFILTER_MODEL", c.YuNet.ModelPath)
	case DetectorPigo:
		c.Pigo.FaceCascade = config.String("FACEFILTER_MODEL", c.Pigo.FaceCascade)
	}
}

// Validate checks field ranges, then cross-field rules.
func (c *Config) Validate() error {
	if err := config.Validate(c); err != nil {
		return err
	}
	if err := c.Session.Detection.Check(); err != nil {
		return &config.ConfigError{Field: "session.detection", Message: err.Error()}
	}
	tr := c.Session.Tracking
	if tr.CheckInterval >= tr.PresenceTimeout {
		return &config.ConfigError{
			Field:   "session.tracking.check_interval",
			Message: "must be shorter than presence_timeout",
		}
	}
	return nil
}

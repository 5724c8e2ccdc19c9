package session

import (
	"time"

	"github.com/teslashibe/go-facefilter/pkg/tracking"
	"github.com/teslashibe/go-facefilter/pkg/tracking/detection"
)

// Config holds the parameters of one tracking session.
type Config struct {
	Tracking  tracking.Config   `yaml:"tracking" json:"tracking"`
	Detection detection.Options `yaml:"detection" json:"detection"`

	// Detector initialization
	InitRetries  int           `yaml:"init_retries" json:"init_retries" validate:"gte=1,lte=10"`
	InitBackoff  time.Duration `yaml:"init_backoff" json:"init_backoff" validate:"gte=0"`
	ReadyTimeout time.Duration `yaml:"ready_timeout" json:"ready_timeout" validate:"gt=0"` // Wait for the source to start playing
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		Tracking:     tracking.DefaultConfig(),
		Detection:    detection.DefaultOptions(),
		InitRetries:  3,
		InitBackoff:  200 * time.Millisecond,
		ReadyTimeout: 5 * time.Second,
	}
}

package tracking

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SmoothingAlpha != 0.2 {
		t.Errorf("Expected SmoothingAlpha=0.2, got %v", cfg.SmoothingAlpha)
	}
	if cfg.PresenceTimeout != time.Second {
		t.Errorf("Expected PresenceTimeout=1s, got %v", cfg.PresenceTimeout)
	}
	if cfg.CheckInterval != 300*time.Millisecond {
		t.Errorf("Expected CheckInterval=300ms, got %v", cfg.CheckInterval)
	}
	if cfg.Policy != PolicyBoundingRegion {
		t.Errorf("Expected bounding policy, got %q", cfg.Policy)
	}
	if cfg.RegionPadding != 1.8 || cfg.PairScale != 0.6 {
		t.Errorf("Unexpected placement factors: padding=%v scale=%v", cfg.RegionPadding, cfg.PairScale)
	}
	// Loss must be noticed within one interval of the timeout
	if cfg.CheckInterval >= cfg.PresenceTimeout {
		t.Error("CheckInterval should be shorter than PresenceTimeout")
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name    string
		alpha   float64
		timeout time.Duration
	}{
		{"default", 0.2, time.Second},
		{"", 0.2, time.Second},
		{"calm", 0.12, 1500 * time.Millisecond},
		{"snappy", 0.4, 600 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := Preset(tt.name)
			if !ok {
				t.Fatalf("preset %q not found", tt.name)
			}
			if cfg.SmoothingAlpha != tt.alpha {
				t.Errorf("alpha = %v, want %v", cfg.SmoothingAlpha, tt.alpha)
			}
			if cfg.PresenceTimeout != tt.timeout {
				t.Errorf("timeout = %v, want %v", cfg.PresenceTimeout, tt.timeout)
			}
		})
	}

	if _, ok := Preset("turbo"); ok {
		t.Error("unknown preset should not be found")
	}
}

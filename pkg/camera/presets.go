package camera

// Preset names for common configurations
const (
	PresetDefault    = "default"
	PresetHD         = "hd"
	PresetLowLatency = "lowlatency"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		PresetHD:         HDConfig(),
		PresetLowLatency: LowLatencyConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetHD,
		PresetLowLatency,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// HDConfig returns 720p configuration.
// Sharper landmarks, more detector time per frame.
func HDConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// LowLatencyConfig returns a small, slow stream for weak machines.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 15
	cfg.Quality = 70
	return cfg
}

// facefilter overlays an image on the face in a live camera stream and
// serves the composited preview on a web dashboard.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-facefilter/internal/config"
	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/facefilter"
	"github.com/teslashibe/go-facefilter/pkg/tracking"
)

func main() {
	cfg := parseFlags()

	app, err := facefilter.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags builds the configuration: defaults, then the YAML file, then
// .env and environment, then flags.
func parseFlags() facefilter.Config {
	cfg := facefilter.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env", config.DefaultDotEnv, "dotenv file (missing is fine)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every detector call")
	port := flag.String("port", "", "Dashboard port (overrides FACEFILTER_PORT)")
	asset := flag.String("asset", "", "Overlay image URL or path (overrides FACEFILTER_ASSET)")
	detector := flag.String("detector", "", "Detector backend: yunet, pigo, mock")
	model := flag.String("model", "", "Detector model path (YuNet ONNX or Pigo face cascade)")
	device := flag.Int("camera", -1, "Camera device index (overrides FACEFILTER_CAMERA)")
	cameraPreset := flag.String("camera-preset", "", "Camera preset: default, hd, lowlatency")
	trackingPreset := flag.String("tracking", "", "Tracking preset: default, calm, snappy")
	policy := flag.String("policy", "", "Placement policy: bounding, pair")
	mockCamera := flag.Bool("mock-camera", false, "Use synthetic frames instead of a camera")
	noCamera := flag.Bool("no-camera", false, "Start with the camera off")
	static := flag.String("static", "", "Directory served at / on the dashboard")
	flag.Parse()

	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			log.Fatalf("❌ Config file: %v", err)
		}
	}
	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("❌ %v", err)
	}
	cfg.LoadEnvConfig()

	if *trackingPreset != "" {
		preset, ok := tracking.Preset(*trackingPreset)
		if !ok {
			log.Fatalf("❌ Unknown tracking preset: %s", *trackingPreset)
		}
		preset.Policy = cfg.Session.Tracking.Policy
		cfg.Session.Tracking = preset
	}
	if *cameraPreset != "" {
		preset := camera.GetPreset(*cameraPreset)
		if preset == nil {
			log.Fatalf("❌ Unknown camera preset: %s", *cameraPreset)
		}
		preset.Device = cfg.Camera.Device
		cfg.Camera = *preset
	}

	cfg.Debug = cfg.Debug || *debug
	cfg.DebugTracking = cfg.DebugTracking || *debugTracking
	cfg.MockCamera = cfg.MockCamera || *mockCamera
	if *noCamera {
		cfg.CameraOnStart = false
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *asset != "" {
		cfg.Asset = *asset
	}
	if *detector != "" {
		cfg.Detector = *detector
	}
	if *model != "" {
		switch cfg.Detector {
		case facefilter.DetectorPigo:
			cfg.Pigo.FaceCascade = *model
		default:
			cfg.YuNet.ModelPath = *model
		}
	}
	if *device >= 0 {
		cfg.Camera.Device = *device
	}
	if *policy != "" {
		cfg.Session.Tracking.Policy = *policy
	}
	if *static != "" {
		cfg.StaticDir = *static
	}
	return cfg
}

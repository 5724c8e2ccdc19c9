package facefilter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-facefilter/internal/log"
	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/debug"
	"github.com/teslashibe/go-facefilter/pkg/overlay"
	"github.com/teslashibe/go-facefilter/pkg/session"
	"github.com/teslashibe/go-facefilter/pkg/tracking/detection"
	"github.com/teslashibe/go-facefilter/pkg/web"
)

// App is the face filter application.
type App struct {
	config Config
	logger *slog.Logger

	// Pipeline collaborators
	detector      detection.Detector
	asset         *overlay.Asset
	cameraManager *camera.Manager

	// Web dashboard
	webServer *web.Server

	// Camera on/off. mu serializes toggles; current is read lock-free by
	// dashboard callbacks that may run on the session loop.
	mu      sync.Mutex
	source  camera.Source
	current atomic.Pointer[session.Session]
	runCtx  context.Context
}

// New creates an app from a validated config.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{config: cfg, runCtx: context.Background()}, nil
}

// Init creates the detector, asset, camera manager and dashboard.
// A detector that fails to load is not fatal here: turning the camera
// on will report it and try again.
func (a *App) Init() error {
	debug.Configure(a.config.Debug, a.config.DebugTracking)
	level := a.config.LogLevel
	if a.config.Debug {
		level = "debug"
	}
	log.Init(level)
	a.logger = log.L()

	if err := a.ensureDetector(); err != nil {
		a.logger.Warn("detector unavailable", "detector", a.config.Detector, "error", err)
	}

	a.asset = overlay.NewAsset(a.config.Asset, a.logger)

	a.cameraManager = camera.NewManager(a.config.Camera)
	a.cameraManager.OnConfigChange = a.applyCameraConfig

	a.webServer = web.NewServer(a.config.Port, a.config.StaticDir, a.cameraManager, log.With("component", "web"))
	a.webServer.OnSnapshot = a.snapshot
	a.webServer.OnDisplayResize = a.resizeDisplay
	a.webServer.OnCameraToggle = a.SetCamera
	a.webServer.UpdateState(func(s *web.State) {
		s.Detector = a.config.Detector
		s.Asset = a.asset.Ref()
	})

	return nil
}

// Run loads the asset, starts the dashboard and, if configured, the
// camera. It blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	a.runCtx = ctx
	a.mu.Unlock()

	a.asset.LoadAsync(ctx)
	a.webServer.StartAsync(ctx)
	a.webServer.AddLog("info", "Face filter started")

	if a.config.CameraOnStart {
		if err := a.SetCamera(true); err != nil {
			a.logger.Error("camera start failed", "error", err)
		}
	}

	<-ctx.Done()
	return nil
}

// Shutdown stops the camera and releases the detector and dashboard.
func (a *App) Shutdown() {
	a.mu.Lock()
	a.stopCameraLocked()
	a.mu.Unlock()

	if a.detector != nil {
		a.detector.Close()
	}
	if a.webServer != nil {
		a.webServer.Shutdown()
	}
	a.logger.Info("face filter stopped")
}

// SetCamera turns the camera on or off. Turning it on opens a fresh
// source and starts a new tracking session; failures leave it off and
// are shown on the dashboard until the user tries again.
func (a *App) SetCamera(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !on {
		a.stopCameraLocked()
		return nil
	}
	if a.current.Load() != nil {
		return nil
	}

	// FacePresent is left to the session listener once the loop runs
	err := a.startCameraLocked()
	a.webServer.UpdateState(func(s *web.State) {
		s.CameraOn = err == nil
		s.LastError = ""
		if err != nil {
			s.LastError = err.Error()
		}
		if sess := a.current.Load(); sess != nil {
			s.SessionID = sess.ID()
		}
	})
	return err
}

func (a *App) startCameraLocked() error {
	if err := a.ensureDetector(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrDetectorUnavailable, err)
	}

	cfg := a.cameraManager.GetConfig()
	src := a.newSource(cfg)
	if err := src.Start(a.runCtx); err != nil {
		return err
	}

	listener := session.ListenerFunc(func(present bool) {
		debug.Log("👤 face present: %v\n", present)
		a.webServer.OnFaceDetectionChange(present)
	})
	sess, err := session.New(a.config.Session, src, a.detector, a.asset,
		session.WithLogger(a.logger),
		session.WithListener(listener),
		session.WithSink(a.webServer),
	)
	if err != nil {
		src.Stop()
		return err
	}
	a.webServer.UpdateState(func(s *web.State) {
		s.FacePresent = false
	})
	if err := sess.Start(a.runCtx); err != nil {
		sess.Stop()
		src.Stop()
		return err
	}

	a.source = src
	a.current.Store(sess)
	return nil
}

func (a *App) stopCameraLocked() {
	if sess := a.current.Swap(nil); sess != nil {
		sess.Stop()
	}
	if a.source != nil {
		a.source.Stop()
		a.source = nil
	}
	if a.webServer != nil {
		a.webServer.UpdateState(func(s *web.State) {
			s.CameraOn = false
			s.FacePresent = false
			s.SessionID = ""
		})
	}
}

func (a *App) newSource(cfg camera.Config) camera.Source {
	logger := log.With("component", "camera")
	if a.config.MockCamera {
		interval := time.Second / time.Duration(cfg.Framerate)
		return camera.NewMockSource(image.Pt(cfg.Width, cfg.Height), logger, camera.WithInterval(interval))
	}
	return camera.NewCapture(cfg, logger)
}

// applyCameraConfig reopens the camera with new settings if it is on.
func (a *App) applyCameraConfig(camera.Config) error {
	if a.current.Load() == nil {
		return nil
	}
	if err := a.SetCamera(false); err != nil {
		return err
	}
	return a.SetCamera(true)
}

// ensureDetector creates the configured detector once it succeeds.
func (a *App) ensureDetector() error {
	if a.detector != nil {
		return nil
	}
	d, err := newDetector(a.config)
	if err != nil {
		return err
	}
	a.detector = d
	return nil
}

func newDetector(cfg Config) (detection.Detector, error) {
	switch cfg.Detector {
	case DetectorYuNet:
		d, err := detection.NewYuNet(cfg.YuNet)
		if err != nil {
			return nil, err
		}
		return d, nil
	case DetectorPigo:
		d, err := detection.NewPigo(cfg.Pigo)
		if err != nil {
			return nil, err
		}
		return d, nil
	case DetectorMock:
		return detection.NewMock(), nil
	}
	return nil, fmt.Errorf("unknown detector %q", cfg.Detector)
}

func (a *App) snapshot() (session.Snapshot, bool) {
	sess := a.current.Load()
	if sess == nil {
		return session.Snapshot{}, false
	}
	return sess.Snapshot(), true
}

var errNoSession = errors.New("camera is off")

func (a *App) resizeDisplay(width, height int) error {
	sess := a.current.Load()
	if sess == nil {
		return errNoSession
	}
	sess.Resize(width, height)
	return nil
}

// Session returns the active tracking session, or nil when the camera is off.
func (a *App) Session() *session.Session {
	return a.current.Load()
}

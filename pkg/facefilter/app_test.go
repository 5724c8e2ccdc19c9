package facefilter

import (
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/session"
	"github.com/teslashibe/go-facefilter/pkg/tracking/detection"
)

// faceResults scripts n frames with a face in the mock topology.
func faceResults(n int) []detection.MockResult {
	set := detection.LandmarkSet{
		Points: []detection.Landmark{
			{X: 0.5, Y: 0.3}, {X: 0.5, Y: 0.7}, {X: 0.3, Y: 0.5}, {X: 0.7, Y: 0.5},
			{X: 0.4, Y: 0.45}, {X: 0.6, Y: 0.45},
		},
		Confidence: 0.9,
	}
	results := make([]detection.MockResult, n)
	for i := range results {
		results[i] = detection.MockResult{Sets: []detection.LandmarkSet{set}}
	}
	return results
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testApp(t *testing.T, mutate func(*Config)) *App {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Detector = DetectorMock
	cfg.MockCamera = true
	cfg.Asset = ""
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector = "dlib"
	if _, err := New(cfg); err == nil {
		t.Error("expected validation error")
	}
}

func TestApp_CameraToggle(t *testing.T) {
	a := testApp(t, nil)

	if err := a.SetCamera(true); err != nil {
		t.Fatalf("camera on: %v", err)
	}
	first := a.Session()
	if first == nil {
		t.Fatal("expected an active session")
	}
	state := a.webServer.GetState()
	if !state.CameraOn || state.SessionID != first.ID() {
		t.Errorf("dashboard state = %+v", state)
	}

	// Already on: no new session
	a.SetCamera(true)
	if a.Session() != first {
		t.Error("second on should keep the session")
	}

	if err := a.SetCamera(false); err != nil {
		t.Fatalf("camera off: %v", err)
	}
	if a.Session() != nil {
		t.Error("session should be gone")
	}
	select {
	case <-first.Done():
	default:
		t.Error("session loop should have exited")
	}
	if state := a.webServer.GetState(); state.CameraOn || state.SessionID != "" {
		t.Errorf("dashboard state after off = %+v", state)
	}

	// Turning back on starts a fresh session
	if err := a.SetCamera(true); err != nil {
		t.Fatalf("camera on again: %v", err)
	}
	if a.Session() == nil || a.Session().ID() == first.ID() {
		t.Error("expected a new session")
	}
}

func TestApp_DetectorUnavailable(t *testing.T) {
	a := testApp(t, func(c *Config) {
		c.Detector = DetectorYuNet
		c.YuNet.ModelPath = "/nonexistent/face_detection_yunet.onnx"
	})

	err := a.SetCamera(true)
	if !errors.Is(err, session.ErrDetectorUnavailable) {
		t.Fatalf("SetCamera = %v, want ErrDetectorUnavailable", err)
	}
	state := a.webServer.GetState()
	if state.CameraOn || state.LastError == "" {
		t.Errorf("failure should be shown with the camera off: %+v", state)
	}
	if a.Session() != nil {
		t.Error("no session should be running")
	}
}

func TestApp_DisplayResize(t *testing.T) {
	a := testApp(t, nil)

	if err := a.resizeDisplay(320, 240); err == nil {
		t.Error("resize with camera off should fail")
	}
	if _, ok := a.snapshot(); ok {
		t.Error("no snapshot with camera off")
	}

	a.SetCamera(true)
	if err := a.resizeDisplay(320, 240); err != nil {
		t.Errorf("resize: %v", err)
	}
	if _, ok := a.snapshot(); !ok {
		t.Error("expected a snapshot with camera on")
	}
}

func TestApp_CameraConfigRestartsSession(t *testing.T) {
	a := testApp(t, nil)
	a.SetCamera(true)
	first := a.Session()

	if err := a.cameraManager.UpdateConfig(map[string]any{"preset": "lowlatency"}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if a.Session() == nil || a.Session() == first {
		t.Error("camera config change should restart the session")
	}
}

func TestApp_FacePresentSurvivesCameraStart(t *testing.T) {
	a := testApp(t, func(c *Config) {
		c.Camera = camera.LowLatencyConfig()
		c.Camera.Framerate = 60
	})
	a.detector = detection.NewMock(detection.WithResults(faceResults(500)...))

	if err := a.SetCamera(true); err != nil {
		t.Fatalf("camera on: %v", err)
	}

	// The first detection can land before SetCamera returns; the
	// dashboard must still end up reporting the face.
	waitFor(t, "face present on dashboard", func() bool {
		return a.webServer.GetState().FacePresent
	})
	if !a.Session().Snapshot().FacePresent {
		t.Error("session and dashboard disagree on face presence")
	}

	src, ok := a.source.(*camera.MockSource)
	if !ok {
		t.Fatalf("source = %T, want *camera.MockSource", a.source)
	}
	a.SetCamera(false)
	if a.webServer.GetState().FacePresent {
		t.Error("camera off should clear face presence")
	}
	select {
	case <-src.Stopped():
	default:
		t.Error("camera off should stop the source")
	}
}

func TestApp_ShutdownClosesDetector(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector = DetectorMock
	cfg.MockCamera = true
	cfg.Asset = ""

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mock, ok := a.detector.(*detection.Mock)
	if !ok {
		t.Fatalf("detector = %T, want *detection.Mock", a.detector)
	}
	if err := a.SetCamera(true); err != nil {
		t.Fatalf("camera on: %v", err)
	}

	a.Shutdown()

	if !mock.Closed() {
		t.Error("Shutdown should close the detector")
	}
	if a.Session() != nil {
		t.Error("Shutdown should stop the session")
	}
}

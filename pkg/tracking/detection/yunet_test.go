package detection

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// TestYuNetNewInvalidPath tests error handling for missing model
func TestYuNetNewInvalidPath(t *testing.T) {
	cfg := DefaultYuNetConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"

	_, err := NewYuNet(cfg)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestYuNetDetect_RequiresConfigure(t *testing.T) {
	detector := newTestYuNet(t)

	_, err := detector.Detect(context.Background(), solidImage(320, 240, color.RGBA{0, 0, 255, 255}))
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

// TestYuNetDetect_EmptyImage tests detection on empty image
func TestYuNetDetect_EmptyImage(t *testing.T) {
	detector := newTestYuNet(t)
	detector.Configure(DefaultOptions())

	if _, err := detector.Detect(context.Background(), nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for nil image, got %v", err)
	}
	if _, err := detector.Detect(context.Background(), image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for zero-size image, got %v", err)
	}
}

// TestYuNetDetect_SolidImage tests detection on solid color image (no faces)
func TestYuNetDetect_SolidImage(t *testing.T) {
	detector := newTestYuNet(t)
	if err := detector.Configure(DefaultOptions()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	sets, err := detector.Detect(context.Background(), solidImage(320, 240, color.RGBA{0, 0, 255, 255}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(sets) > 0 {
		t.Errorf("Expected no faces in solid color image, got %d", len(sets))
	}
}

func TestYuNetTopology(t *testing.T) {
	d := &YuNetDetector{}
	if d.Topology().Points != YuNetNumLandmarks {
		t.Errorf("Points = %d, want %d", d.Topology().Points, YuNetNumLandmarks)
	}
}

// Helper functions

func newTestYuNet(t *testing.T) *YuNetDetector {
	t.Helper()
	modelPath := findModelPath()
	if modelPath == "" {
		t.Skip("YuNet model not found, skipping test")
	}

	cfg := DefaultYuNetConfig()
	cfg.ModelPath = modelPath
	detector, err := NewYuNet(cfg)
	if err != nil {
		t.Fatalf("NewYuNet failed: %v", err)
	}
	t.Cleanup(func() { detector.Close() })
	return detector
}

func findModelPath() string {
	// Try different relative paths from test location
	paths := []string{
		"../../../models/face_detection_yunet.onnx",
		"../../models/face_detection_yunet.onnx",
		"models/face_detection_yunet.onnx",
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}
	return ""
}

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

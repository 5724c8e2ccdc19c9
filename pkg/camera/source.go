package camera

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrUnavailable means the capture device could not be opened.
	ErrUnavailable = errors.New("camera: device unavailable")

	// ErrClosed is returned when starting a source that was already stopped.
	ErrClosed = errors.New("camera: source closed")
)

// Frame is one captured video image.
type Frame struct {
	Image     image.Image
	Timestamp time.Time
	Seq       uint64
}

// Size returns the frame's pixel dimensions.
func (f Frame) Size() image.Point {
	if f.Image == nil {
		return image.Point{}
	}
	return f.Image.Bounds().Size()
}

// Source delivers live frames from a camera or other input.
type Source interface {
	// Start opens the device and begins delivering frames.
	Start(ctx context.Context) error

	// Stop halts delivery and releases the device.
	// It is safe to call Stop multiple times. A stopped source cannot
	// be restarted.
	Stop() error

	// Frames delivers the most recent frames. Delivery never blocks the
	// producer: a frame nobody is waiting for is replaced by the next.
	// The channel may be closed after Stop.
	Frames() <-chan Frame

	// Ready is closed once the source is playing, after its first frame.
	Ready() <-chan struct{}

	// DisplaySize is the current displayed size in pixels.
	DisplaySize() image.Point

	// Name identifies the backend.
	Name() string
}

package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// maxReadFailures is how many consecutive empty reads are tolerated before
// the capture loop backs off.
const maxReadFailures = 30

// Capture reads frames from a local camera through OpenCV.
type Capture struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	vc      *gocv.VideoCapture
	stopCh  chan struct{}
	done    chan struct{}

	frames    chan Frame
	ready     chan struct{}
	readyOnce sync.Once

	size atomic.Pointer[image.Point]
	seq  atomic.Uint64
}

// NewCapture creates a capture for cfg. Nothing is opened until Start.
func NewCapture(cfg Config, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Capture{
		cfg:    cfg,
		logger: logger,
		frames: make(chan Frame, 1),
		ready:  make(chan struct{}),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	size := image.Pt(cfg.Width, cfg.Height)
	c.size.Store(&size)
	return c
}

// Start opens the device. Failure to open returns ErrUnavailable.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.running {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrUnavailable, c.cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: device %d not opened", ErrUnavailable, c.cfg.Device)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.cfg.Framerate))

	c.vc = vc
	c.running = true
	go c.readLoop(ctx)

	c.logger.Info("camera capture started",
		"device", c.cfg.Device,
		"width", c.cfg.Width,
		"height", c.cfg.Height,
		"framerate", c.cfg.Framerate,
	)
	return nil
}

func (c *Capture) readLoop(ctx context.Context) {
	defer close(c.done)

	mat := gocv.NewMat()
	defer mat.Close()
	flipped := gocv.NewMat()
	defer flipped.Close()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		if ok := c.vc.Read(&mat); !ok || mat.Empty() {
			failures++
			if failures == maxReadFailures {
				c.logger.Warn("camera returning empty frames", "device", c.cfg.Device)
			}
			if failures >= maxReadFailures {
				time.Sleep(100 * time.Millisecond)
			}
			continue
		}
		failures = 0

		src := mat
		if c.cfg.Mirror {
			gocv.Flip(mat, &flipped, 1)
			src = flipped
		}
		img, err := src.ToImage()
		if err != nil {
			c.logger.Debug("frame conversion failed", "error", err)
			continue
		}

		size := img.Bounds().Size()
		c.size.Store(&size)
		c.readyOnce.Do(func() { close(c.ready) })

		c.offer(Frame{Image: img, Timestamp: time.Now(), Seq: c.seq.Add(1)})
	}
}

// offer replaces any undelivered frame with f.
func (c *Capture) offer(f Frame) {
	select {
	case c.frames <- f:
		return
	default:
	}
	select {
	case <-c.frames:
	default:
	}
	select {
	case c.frames <- f:
	default:
	}
}

// Stop halts capture and releases the device.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.stopCh)

	if c.running {
		<-c.done
		c.running = false
		err := c.vc.Close()
		close(c.frames)
		c.logger.Info("camera capture stopped", "device", c.cfg.Device, "frames", c.seq.Load())
		return err
	}
	close(c.frames)
	return nil
}

// Frames implements Source.
func (c *Capture) Frames() <-chan Frame {
	return c.frames
}

// Ready implements Source.
func (c *Capture) Ready() <-chan struct{} {
	return c.ready
}

// DisplaySize returns the size of the last frame, or the configured size
// before the first one.
func (c *Capture) DisplaySize() image.Point {
	return *c.size.Load()
}

// Config returns the capture configuration.
func (c *Capture) Config() Config {
	return c.cfg
}

// Name returns "gocv".
func (c *Capture) Name() string {
	return "gocv"
}

package camera

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// MockSource is a frame source for testing and camera-less demos.
// Frames are pushed with Emit, or generated on a ticker with WithInterval.
type MockSource struct {
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	frames   chan Frame
	stopCh   chan struct{}
	ready    chan struct{}
	autoOpen bool

	size     atomic.Pointer[image.Point]
	seq      atomic.Uint64
	interval time.Duration
	fill     color.Color
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithInterval generates a frame every d after Start.
func WithInterval(d time.Duration) MockSourceOption {
	return func(m *MockSource) {
		m.interval = d
	}
}

// WithManualReady keeps Ready open until MarkReady is called.
func WithManualReady() MockSourceOption {
	return func(m *MockSource) {
		m.autoOpen = false
	}
}

// WithFill sets the generated frame color.
func WithFill(c color.Color) MockSourceOption {
	return func(m *MockSource) {
		m.fill = c
	}
}

// NewMockSource creates a mock source producing frames of the given size.
func NewMockSource(size image.Point, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		logger:   logger,
		frames:   make(chan Frame),
		stopCh:   make(chan struct{}),
		ready:    make(chan struct{}),
		autoOpen: true,
		fill:     color.Gray{Y: 128},
	}
	m.size.Store(&size)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start begins delivering frames.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.running {
		return nil
	}
	m.running = true

	if m.autoOpen {
		m.markReadyLocked()
	}
	if m.interval > 0 {
		go m.generateLoop(ctx)
	}

	m.logger.Info("mock camera source started", "size", m.DisplaySize().String(), "interval", m.interval)
	return nil
}

func (m *MockSource) generateLoop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			select {
			case m.frames <- m.frame(nil):
			default:
				// Consumer busy, drop
			}
		}
	}
}

// Emit delivers one frame, blocking until it is received or the source
// stops. A nil img sends a solid frame of the display size. It reports
// whether the frame was delivered.
func (m *MockSource) Emit(img image.Image) bool {
	f := m.frame(img)
	select {
	case m.frames <- f:
		return true
	case <-m.stopCh:
		return false
	}
}

func (m *MockSource) frame(img image.Image) Frame {
	if img == nil {
		size := m.DisplaySize()
		rgba := image.NewRGBA(image.Rectangle{Max: size})
		r, g, b, a := m.fill.RGBA()
		c := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
		for i := 0; i < len(rgba.Pix); i += 4 {
			rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3] = c.R, c.G, c.B, c.A
		}
		img = rgba
	}
	return Frame{Image: img, Timestamp: time.Now(), Seq: m.seq.Add(1)}
}

// MarkReady closes Ready when WithManualReady was used.
func (m *MockSource) MarkReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markReadyLocked()
}

func (m *MockSource) markReadyLocked() {
	select {
	case <-m.ready:
	default:
		close(m.ready)
	}
}

// SetDisplaySize changes the reported displayed size.
func (m *MockSource) SetDisplaySize(size image.Point) {
	m.size.Store(&size)
}

// Stop halts frame delivery.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.running = false
	close(m.stopCh)

	m.logger.Info("mock camera source stopped", "frames", m.seq.Load())
	return nil
}

// Frames implements Source. The channel is never closed; select on
// Stopped to notice shutdown.
func (m *MockSource) Frames() <-chan Frame {
	return m.frames
}

// Stopped is closed after Stop.
func (m *MockSource) Stopped() <-chan struct{} {
	return m.stopCh
}

// Ready implements Source.
func (m *MockSource) Ready() <-chan struct{} {
	return m.ready
}

// DisplaySize implements Source.
func (m *MockSource) DisplaySize() image.Point {
	return *m.size.Load()
}

// Name returns "mock".
func (m *MockSource) Name() string {
	return "mock"
}

// Package session runs one face-tracking session: frames from a camera
// source go to a landmark detector, and results drive the smoothing
// filter, the overlay compositor and the presence tracker.
//
// All pipeline state is owned by a single event-loop goroutine. Frames,
// detector results, display resizes and the presence check ticker are
// events on that loop; nothing else touches the canvas or the trackers.
package session

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/debug"
	"github.com/teslashibe/go-facefilter/pkg/overlay"
	"github.com/teslashibe/go-facefilter/pkg/tracking"
	"github.com/teslashibe/go-facefilter/pkg/tracking/detection"
)

// Listener is notified when the face-present state changes. It is called
// from the session loop and must not block.
type Listener interface {
	OnFaceDetectionChange(present bool)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(present bool)

// OnFaceDetectionChange implements Listener.
func (f ListenerFunc) OnFaceDetectionChange(present bool) { f(present) }

// FrameSink receives each processed frame with a copy of the overlay layer.
// It is called from the session loop and must not block.
type FrameSink interface {
	OnComposite(frame camera.Frame, layer *image.RGBA)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithListener sets the face-present listener.
func WithListener(l Listener) Option {
	return func(s *Session) { s.listener = l }
}

// WithSink sets the composited-frame sink.
func WithSink(sink FrameSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithCanvas replaces the default raster canvas.
func WithCanvas(c overlay.Canvas) Option {
	return func(s *Session) { s.canvas = c }
}

type detectResult struct {
	frame camera.Frame
	sets  []detection.LandmarkSet
	err   error
	at    time.Time
}

// Session is one tracking session bound to one source and one detector.
// It does not own either; the caller closes them after Stop.
type Session struct {
	id       string
	cfg      Config
	logger   *slog.Logger
	source   camera.Source
	detector detection.Detector
	asset    *overlay.Asset
	listener Listener
	sink     FrameSink
	canvas   overlay.Canvas

	// Loop-owned pipeline state
	comp     *overlay.Compositor
	resolver tracking.Resolver
	filter   *tracking.Filter
	presence *tracking.Presence
	inFlight bool
	active   bool
	stats    Stats

	results  chan detectResult
	resized  chan struct{}
	override atomic.Pointer[image.Point]

	lifeMu  sync.Mutex
	started bool
	stopped bool
	running bool
	cancel  context.CancelFunc
	stopCh  chan struct{}
	done    chan struct{}

	snapMu sync.RWMutex
	snap   Snapshot
}

// New creates a session. asset may be nil or still loading.
func New(cfg Config, source camera.Source, detector detection.Detector, asset *overlay.Asset, opts ...Option) (*Session, error) {
	resolver, err := tracking.NewResolver(cfg.Tracking, detector.Topology())
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		source:   source,
		detector: detector,
		asset:    asset,
		resolver: resolver,
		filter:   tracking.NewFilter(cfg.Tracking.SmoothingAlpha),
		results:  make(chan detectResult),
		resized:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("session_id", s.id)
	if s.canvas == nil {
		s.canvas = overlay.NewRasterCanvas(source.DisplaySize())
	}
	s.comp = overlay.NewCompositor(s.canvas, asset)
	s.presence = tracking.NewPresence(cfg.Tracking.PresenceTimeout, s.onPresenceChange)
	s.publish()

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start waits for the source to be ready, configures the detector and
// starts the session loop. Unavailable detector or source are terminal:
// the session cannot be started again.
func (s *Session) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.stopped {
		s.lifeMu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.lifeMu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.lifeMu.Unlock()

	if err := s.awaitSource(ctx); err != nil {
		return err
	}
	if err := s.configureDetector(ctx); err != nil {
		return err
	}

	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	go s.run(loopCtx)

	s.logger.Info("tracking session started",
		"source", s.source.Name(),
		"detector", s.detector.Topology().Name,
		"policy", s.cfg.Tracking.Policy,
	)
	return nil
}

func (s *Session) awaitSource(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.ReadyTimeout)
	defer timer.Stop()

	select {
	case <-s.source.Ready():
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: no frames after %v", ErrSourceNotReady, s.cfg.ReadyTimeout)
	case <-s.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// configureDetector applies the detector options with a bounded retry.
func (s *Session) configureDetector(ctx context.Context) error {
	attempts := max(s.cfg.InitRetries, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = s.detector.Configure(s.cfg.Detection); err == nil {
			return nil
		}
		s.logger.Warn("detector configure failed", "attempt", attempt, "of", attempts, "error", err)
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(s.cfg.InitBackoff):
		case <-s.stopCh:
			return ErrStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
}

// Stop halts the session loop and its check ticker, and waits for the loop
// to exit. Detector calls still in flight are canceled and their results
// are discarded. Safe to call more than once.
func (s *Session) Stop() {
	s.lifeMu.Lock()
	if s.stopped {
		s.lifeMu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	running := s.running
	if s.cancel != nil {
		s.cancel()
	}
	s.lifeMu.Unlock()

	if running {
		<-s.done
	}
	s.logger.Info("tracking session stopped",
		"frames", s.stats.Frames,
		"detections", s.stats.Detections,
		"skipped", s.stats.Skipped,
	)
}

// Done is closed when the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Resize overrides the displayed size the canvas is kept in sync with.
// A zero size reverts to the source's displayed size.
func (s *Session) Resize(width, height int) {
	size := image.Pt(width, height)
	s.override.Store(&size)
	select {
	case s.resized <- struct{}{}:
	default:
	}
}

// Snapshot returns the latest session state.
func (s *Session) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()

	snap := s.snap
	snap.Placements = append([]tracking.Placement(nil), s.snap.Placements...)
	return snap
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Tracking.CheckInterval)
	defer ticker.Stop()

	defer func() {
		s.active = false
		s.publish()
	}()

	s.active = true
	frames := s.source.Frames()
	s.syncCanvas(image.Point{})
	s.publish()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				s.logger.Warn("video source closed")
				frames = nil
				continue
			}
			s.onFrame(ctx, f)
		case r := <-s.results:
			s.onResult(r)
		case <-s.resized:
			s.syncCanvas(image.Point{})
			s.publish()
		case now := <-ticker.C:
			if s.presence.Check(now) {
				s.publish()
			}
		}
	}
}

func (s *Session) onFrame(ctx context.Context, f camera.Frame) {
	s.stats.Frames++
	s.syncCanvas(f.Size())

	if s.inFlight {
		s.stats.Skipped++
		debug.TrackLog("⏭️  frame %d skipped, detection in flight\n", f.Seq)
		return
	}
	s.inFlight = true

	go func() {
		start := time.Now()
		sets, err := s.detector.Detect(ctx, f.Image)
		debug.Elapsed(s.detector.Topology().Name, start)
		select {
		case s.results <- detectResult{frame: f, sets: sets, err: err, at: time.Now()}:
		case <-s.done:
		}
	}()
}

func (s *Session) onResult(r detectResult) {
	s.inFlight = false

	if s.stopping() {
		s.stats.Stale++
		return
	}

	if r.err != nil {
		s.stats.DetectErrors++
		s.logger.Warn("detection failed, skipping frame",
			"frame_seq", r.frame.Seq,
			"detect_errors", s.stats.DetectErrors,
			"error", r.err,
		)
		s.publish()
		return
	}

	if len(r.sets) == 0 {
		s.comp.Clear()
		s.emit(r.frame)
		s.publish()
		return
	}

	placements, ok := s.resolver.Resolve(r.sets[0], s.canvas.Size(), s.asset.AspectRatio())
	if !ok {
		s.stats.Unusable++
		debug.TrackLog("⚠️  frame %d: landmark set missing policy indices (%d points)\n",
			r.frame.Seq, len(r.sets[0].Points))
		s.comp.Clear()
		s.emit(r.frame)
		s.publish()
		return
	}

	s.stats.Detections++
	smoothed := s.filter.Update(placements)
	s.comp.Draw(smoothed)
	s.presence.Observe(r.at)
	s.emit(r.frame)
	s.publish()
}

// syncCanvas keeps the canvas at the displayed size: the override from
// Resize if any, else the source's displayed size, else the frame size.
func (s *Session) syncCanvas(frameSize image.Point) {
	size := s.source.DisplaySize()
	if o := s.override.Load(); o != nil && o.X > 0 && o.Y > 0 {
		size = *o
	}
	if size.X <= 0 || size.Y <= 0 {
		size = frameSize
	}
	if s.comp.Sync(size) {
		s.logger.Debug("canvas resized", "width", size.X, "height", size.Y)
	}
}

func (s *Session) emit(f camera.Frame) {
	if s.sink == nil {
		return
	}
	var layer *image.RGBA
	if snap, ok := s.canvas.(interface{ Snapshot() *image.RGBA }); ok {
		layer = snap.Snapshot()
	}
	s.sink.OnComposite(f, layer)
}

func (s *Session) onPresenceChange(present bool) {
	if present {
		s.logger.Info("face detected")
	} else {
		s.logger.Info("face lost")
	}
	if s.listener != nil {
		s.listener.OnFaceDetectionChange(present)
	}
}

func (s *Session) stopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// publish copies loop state into the snapshot read by other goroutines.
func (s *Session) publish() {
	state := s.presence.State()
	size := s.canvas.Size()

	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	s.snap = Snapshot{
		ID:            s.id,
		Running:       s.active,
		FacePresent:   state.Present,
		LastDetection: state.LastDetection,
		Placements:    s.filter.Current(),
		CanvasWidth:   size.X,
		CanvasHeight:  size.Y,
		Detector:      s.detector.Topology().Name,
		Policy:        s.cfg.Tracking.Policy,
		AssetLoaded:   s.asset.Loaded(),
		Stats:         s.stats,
	}
}

package detection

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
)

// MockTopology is the topology used by Mock unless overridden: the four
// face extremes followed by two anchors.
var MockTopology = Topology{
	Name:    "mock",
	Points:  6,
	Region:  []int{0, 1, 2, 3},
	Anchors: [2]int{4, 5},
}

// MockResult is one scripted Detect outcome.
type MockResult struct {
	Sets []LandmarkSet
	Err  error
}

// Mock is a scripted detector for testing. Results are returned in push
// order; once the script is exhausted Detect reports no face.
type Mock struct {
	mu         sync.Mutex
	topology   Topology
	opts       Options
	configured bool
	results    []MockResult
	closed     bool

	configureFailures int
	gate              <-chan struct{}
	ignoreCtx         bool
	started           chan<- struct{}

	calls atomic.Int64
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithTopology overrides the mock topology.
func WithTopology(t Topology) MockOption {
	return func(m *Mock) { m.topology = t }
}

// WithResults preloads scripted results.
func WithResults(results ...MockResult) MockOption {
	return func(m *Mock) { m.results = append(m.results, results...) }
}

// WithGate makes every Detect call block until a value is received from
// gate or the call's context is done.
func WithGate(gate <-chan struct{}) MockOption {
	return func(m *Mock) { m.gate = gate }
}

// WithIgnoreContext makes a gated Detect wait for the gate even after its
// context is canceled, like a backend that cannot be interrupted.
func WithIgnoreContext() MockOption {
	return func(m *Mock) { m.ignoreCtx = true }
}

// WithStarted signals on ch (non-blocking) whenever a Detect call begins.
func WithStarted(ch chan<- struct{}) MockOption {
	return func(m *Mock) { m.started = ch }
}

// WithConfigureFailures makes the first n Configure calls fail.
func WithConfigureFailures(n int) MockOption {
	return func(m *Mock) { m.configureFailures = n }
}

// NewMock creates a new mock detector.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{topology: MockTopology}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configure implements Detector.
func (m *Mock) Configure(opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.configureFailures > 0 {
		m.configureFailures--
		return errors.New("mock: detector not ready")
	}
	if err := opts.Check(); err != nil {
		return err
	}
	m.opts = opts
	m.configured = true
	return nil
}

// Push appends a scripted result.
func (m *Mock) Push(r MockResult) {
	m.mu.Lock()
	m.results = append(m.results, r)
	m.mu.Unlock()
}

// Calls returns how many Detect calls have started.
func (m *Mock) Calls() int64 {
	return m.calls.Load()
}

// Options returns the options passed to the last successful Configure.
func (m *Mock) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// Detect implements Detector.
func (m *Mock) Detect(ctx context.Context, img image.Image) ([]LandmarkSet, error) {
	m.mu.Lock()
	configured := m.configured
	m.mu.Unlock()
	if !configured {
		return nil, ErrNotConfigured
	}

	m.calls.Add(1)
	if m.started != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
	}

	if m.gate != nil && m.ignoreCtx {
		<-m.gate
	} else if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.results) == 0 {
		return nil, nil
	}
	r := m.results[0]
	m.results = m.results[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	sets := r.Sets
	if m.opts.MaxFaces > 0 && len(sets) > m.opts.MaxFaces {
		sets = sets[:m.opts.MaxFaces]
	}
	return sets, nil
}

// Topology implements Detector.
func (m *Mock) Topology() Topology {
	return m.topology
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close implements Detector.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

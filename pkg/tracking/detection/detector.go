// Package detection provides face landmark detection using computer vision
package detection

import (
	"context"
	"errors"
	"image"
	"sort"
)

// Sentinel errors for the detection package.
var (
	// ErrModelNotFound indicates a model or cascade file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrNotConfigured indicates Detect was called before Configure.
	ErrNotConfigured = errors.New("detection: detector not configured")

	// ErrEmptyImage indicates a nil or zero-sized frame.
	ErrEmptyImage = errors.New("detection: empty image")

	// ErrInvalidOptions indicates detector options out of range.
	ErrInvalidOptions = errors.New("detection: invalid options")
)

// Landmark is a single face point in normalized frame coordinates (0-1).
type Landmark struct {
	X, Y float64
}

// LandmarkSet is the ordered landmark output for one face in one frame.
// Index meaning is defined by the producing detector's Topology.
type LandmarkSet struct {
	Points     []Landmark
	Confidence float64 // Detection confidence (0-1)
}

// Has reports whether every index is present in the set.
func (s LandmarkSet) Has(indices ...int) bool {
	for _, i := range indices {
		if i < 0 || i >= len(s.Points) {
			return false
		}
	}
	return true
}

// Topology describes which landmark indices a detector emits for the
// parts of the face the placement policies sample.
type Topology struct {
	Name   string
	Points int // Points in a complete set

	// Extreme points for the bounding-region policy: top, bottom, left edge, right edge.
	Region []int

	// Paired anchors for the point-pair policy (e.g. both eyes). Order is
	// not significant; placements are ordered by image x.
	Anchors [2]int
}

// Options is the detector configuration surface.
type Options struct {
	MaxFaces               int     `yaml:"max_faces" json:"max_faces" validate:"eq=1"`
	RefineLandmarks        bool    `yaml:"refine_landmarks" json:"refine_landmarks"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence" json:"min_detection_confidence" validate:"gte=0,lte=1"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence" json:"min_tracking_confidence" validate:"gte=0,lte=1"`
}

// DefaultOptions returns one face with moderate thresholds.
func DefaultOptions() Options {
	return Options{
		MaxFaces:               1,
		RefineLandmarks:        false,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}

// Check reports ErrInvalidOptions for out-of-range values.
func (o Options) Check() error {
	if o.MaxFaces < 1 {
		return ErrInvalidOptions
	}
	if o.MinDetectionConfidence < 0 || o.MinDetectionConfidence > 1 {
		return ErrInvalidOptions
	}
	if o.MinTrackingConfidence < 0 || o.MinTrackingConfidence > 1 {
		return ErrInvalidOptions
	}
	return nil
}

// Detector is the interface for landmark detection backends
type Detector interface {
	// Configure applies options. It may be called again to reconfigure.
	Configure(opts Options) error

	// Detect finds faces in the frame and returns at most MaxFaces landmark sets,
	// best first. An empty result means no face.
	Detect(ctx context.Context, img image.Image) ([]LandmarkSet, error)

	// Topology describes the landmark indices this detector emits.
	Topology() Topology

	// Close releases resources
	Close() error
}

// gate applies detection vs tracking confidence thresholds. While the
// previous frame produced a face the tracking threshold applies, otherwise
// the detection threshold does.
type gate struct {
	opts     Options
	tracking bool
}

func (g *gate) threshold() float64 {
	if g.tracking {
		return g.opts.MinTrackingConfidence
	}
	return g.opts.MinDetectionConfidence
}

// apply filters, ranks and caps sets, and updates tracking state.
func (g *gate) apply(sets []LandmarkSet) []LandmarkSet {
	floor := g.threshold()
	kept := sets[:0]
	for _, s := range sets {
		if s.Confidence >= floor {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	if limit := g.opts.MaxFaces; limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	g.tracking = len(kept) > 0
	return kept
}

// lowestThreshold is the score a backend must pass through to the gate.
func (o Options) lowestThreshold() float64 {
	if o.MinTrackingConfidence < o.MinDetectionConfidence {
		return o.MinTrackingConfidence
	}
	return o.MinDetectionConfidence
}

// boxExtremes returns the edge midpoints of a normalized box in
// top, bottom, left, right order.
func boxExtremes(x, y, w, h float64) []Landmark {
	cx, cy := x+w/2, y+h/2
	return []Landmark{
		{X: cx, Y: y},
		{X: cx, Y: y + h},
		{X: x, Y: cy},
		{X: x + w, Y: cy},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

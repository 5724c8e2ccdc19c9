// Package tracking turns per-frame face landmarks into stable overlay
// placements and tracks whether a face is present.
package tracking

import (
	"fmt"
	"image"
	"math"

	"github.com/teslashibe/go-facefilter/pkg/tracking/detection"
)

// Point is a position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placement is where one overlay instance goes on the canvas this frame.
type Placement struct {
	Center   Point   `json:"center"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Mirrored bool    `json:"mirrored"` // Draw flipped horizontally about Center
}

// Rect returns the integer canvas rectangle covered by the placement.
func (p Placement) Rect() image.Rectangle {
	x0 := p.Center.X - p.Width/2
	y0 := p.Center.Y - p.Height/2
	return image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x0+p.Width)), int(math.Round(y0+p.Height)),
	)
}

// Resolver maps one landmark set to overlay placements in canvas space.
// aspect is the overlay asset's width/height ratio; heights are derived
// from it. ok is false when the set lacks the indices the policy needs.
type Resolver interface {
	Resolve(set detection.LandmarkSet, canvas image.Point, aspect float64) (placements []Placement, ok bool)
}

// BoundingRegion places one overlay over the box spanned by a few extreme
// face points, widened by Padding.
type BoundingRegion struct {
	Indices []int
	Padding float64
}

// Resolve implements Resolver.
func (b BoundingRegion) Resolve(set detection.LandmarkSet, canvas image.Point, aspect float64) ([]Placement, bool) {
	if len(b.Indices) == 0 || !set.Has(b.Indices...) {
		return nil, false
	}

	first := set.Points[b.Indices[0]]
	minX, maxX, minY, maxY := first.X, first.X, first.Y, first.Y
	for _, i := range b.Indices[1:] {
		p := set.Points[i]
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	w, h := float64(canvas.X), float64(canvas.Y)
	width := (maxX - minX) * w * b.Padding
	return []Placement{{
		Center: Point{X: (minX + maxX) / 2 * w, Y: (minY + maxY) / 2 * h},
		Width:  width,
		Height: heightFor(width, aspect),
	}}, true
}

// PointPair places one overlay on each of two anchor points, sized from the
// distance between them. Placements are ordered left to right on the canvas;
// with MirrorSecond the right one is drawn flipped.
type PointPair struct {
	Anchors      [2]int
	Scale        float64
	MirrorSecond bool
}

// Resolve implements Resolver.
func (p PointPair) Resolve(set detection.LandmarkSet, canvas image.Point, aspect float64) ([]Placement, bool) {
	if !set.Has(p.Anchors[0], p.Anchors[1]) {
		return nil, false
	}

	w, h := float64(canvas.X), float64(canvas.Y)
	a := set.Points[p.Anchors[0]]
	b := set.Points[p.Anchors[1]]
	left := Point{X: a.X * w, Y: a.Y * h}
	right := Point{X: b.X * w, Y: b.Y * h}
	if right.X < left.X {
		left, right = right, left
	}

	width := math.Hypot(right.X-left.X, right.Y-left.Y) * p.Scale
	height := heightFor(width, aspect)
	return []Placement{
		{Center: left, Width: width, Height: height},
		{Center: right, Width: width, Height: height, Mirrored: p.MirrorSecond},
	}, true
}

// NewResolver builds the resolver for cfg.Policy using the indices the
// detector's topology declares.
func NewResolver(cfg Config, topo detection.Topology) (Resolver, error) {
	switch cfg.Policy {
	case PolicyBoundingRegion, "":
		return BoundingRegion{Indices: topo.Region, Padding: cfg.RegionPadding}, nil
	case PolicyPointPair:
		return PointPair{Anchors: topo.Anchors, Scale: cfg.PairScale, MirrorSecond: cfg.MirrorPair}, nil
	}
	return nil, fmt.Errorf("tracking: unknown placement policy %q", cfg.Policy)
}

// heightFor derives height from width and the asset's width/height ratio.
// Unknown ratios are treated as square.
func heightFor(width, aspect float64) float64 {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return width
	}
	return width / aspect
}

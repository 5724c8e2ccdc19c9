package tracking

import (
	"image"
	"math"
	"testing"

	"github.com/teslashibe/go-facefilter/pkg/tracking/detection"
)

var vga = image.Pt(640, 480)

// mockSet builds a set in the Mock topology: region points then anchors.
func mockSet(top, bottom, left, right, a, b detection.Landmark) detection.LandmarkSet {
	return detection.LandmarkSet{
		Points:     []detection.Landmark{top, bottom, left, right, a, b},
		Confidence: 1,
	}
}

func TestPointPair_Width(t *testing.T) {
	r := PointPair{Anchors: detection.MockTopology.Anchors, Scale: 0.6, MirrorSecond: true}
	set := mockSet(
		detection.Landmark{}, detection.Landmark{}, detection.Landmark{}, detection.Landmark{},
		detection.Landmark{X: 0.3, Y: 0.5}, detection.Landmark{X: 0.7, Y: 0.5},
	)

	got, ok := r.Resolve(set, vga, 1)
	if !ok {
		t.Fatal("expected placement")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(got))
	}

	// 0.4 * 640 = 256px between anchors, times 0.6
	for i, p := range got {
		if math.Abs(p.Width-153.6) > 1e-9 {
			t.Errorf("placement %d width = %v, want 153.6", i, p.Width)
		}
	}
	if math.Abs(got[0].Center.X-192) > 1e-9 || math.Abs(got[0].Center.Y-240) > 1e-9 {
		t.Errorf("left center = %+v, want (192, 240)", got[0].Center)
	}
	if math.Abs(got[1].Center.X-448) > 1e-9 {
		t.Errorf("right center x = %v, want 448", got[1].Center.X)
	}
	if got[0].Mirrored || !got[1].Mirrored {
		t.Errorf("only the right placement should be mirrored: %+v", got)
	}
}

func TestPointPair_OrdersByImageX(t *testing.T) {
	r := PointPair{Anchors: [2]int{0, 1}, Scale: 1}
	set := detection.LandmarkSet{Points: []detection.Landmark{{X: 0.8, Y: 0.5}, {X: 0.2, Y: 0.5}}}

	got, _ := r.Resolve(set, vga, 1)
	if got[0].Center.X > got[1].Center.X {
		t.Errorf("placements not ordered left to right: %+v", got)
	}
}

func TestPointPair_DiagonalDistance(t *testing.T) {
	r := PointPair{Anchors: [2]int{0, 1}, Scale: 1}
	// 3-4-5 triangle in pixels on a 100x100 canvas
	set := detection.LandmarkSet{Points: []detection.Landmark{{X: 0, Y: 0}, {X: 0.3, Y: 0.4}}}

	got, ok := r.Resolve(set, image.Pt(100, 100), 2)
	if !ok {
		t.Fatal("expected placement")
	}
	if math.Abs(got[0].Width-50) > 1e-9 {
		t.Errorf("width = %v, want 50", got[0].Width)
	}
	if math.Abs(got[0].Height-25) > 1e-9 {
		t.Errorf("height = %v, want 25 for aspect 2", got[0].Height)
	}
}

func TestBoundingRegion_Width(t *testing.T) {
	r := BoundingRegion{Indices: detection.MockTopology.Region, Padding: 1.8}
	set := mockSet(
		detection.Landmark{X: 0.5, Y: 0.2},  // top
		detection.Landmark{X: 0.5, Y: 0.8},  // bottom
		detection.Landmark{X: 0.25, Y: 0.5}, // left
		detection.Landmark{X: 0.75, Y: 0.5}, // right
		detection.Landmark{}, detection.Landmark{},
	)

	got, ok := r.Resolve(set, vga, 0.5)
	if !ok {
		t.Fatal("expected placement")
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(got))
	}
	p := got[0]

	// (0.5 * 640) * 1.8
	if math.Abs(p.Width-576) > 1e-9 {
		t.Errorf("width = %v, want 576", p.Width)
	}
	if math.Abs(p.Center.X-320) > 1e-9 || math.Abs(p.Center.Y-240) > 1e-9 {
		t.Errorf("center = %+v, want (320, 240)", p.Center)
	}
	// Height comes from the asset ratio, not the landmarks
	if math.Abs(p.Height-1152) > 1e-9 {
		t.Errorf("height = %v, want 1152 for aspect 0.5", p.Height)
	}
	if p.Mirrored {
		t.Error("bounding region placement should not be mirrored")
	}
}

func TestResolvers_MissingIndices(t *testing.T) {
	short := detection.LandmarkSet{Points: make([]detection.Landmark, 4)}

	tests := []struct {
		name string
		r    Resolver
		set  detection.LandmarkSet
	}{
		{"pair beyond set", PointPair{Anchors: [2]int{4, 5}, Scale: 0.6}, short},
		{"region beyond set", BoundingRegion{Indices: []int{0, 1, 2, 9}, Padding: 1.8}, short},
		{"region on empty set", BoundingRegion{Indices: []int{0, 1, 2, 3}, Padding: 1.8}, detection.LandmarkSet{}},
		{"region without indices", BoundingRegion{Padding: 1.8}, short},
		{"pair negative index", PointPair{Anchors: [2]int{-1, 0}}, short},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.r.Resolve(tt.set, vga, 1)
			if ok || got != nil {
				t.Errorf("expected no placement, got %v, %v", got, ok)
			}
		})
	}
}

func TestNewResolver(t *testing.T) {
	cfg := DefaultConfig()

	r, err := NewResolver(cfg, detection.YuNetTopology)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	br, ok := r.(BoundingRegion)
	if !ok {
		t.Fatalf("default policy should be BoundingRegion, got %T", r)
	}
	if br.Padding != 1.8 || len(br.Indices) != 4 {
		t.Errorf("unexpected resolver %+v", br)
	}

	cfg.Policy = PolicyPointPair
	r, _ = NewResolver(cfg, detection.PigoTopology)
	pp, ok := r.(PointPair)
	if !ok {
		t.Fatalf("pair policy should be PointPair, got %T", r)
	}
	if pp.Anchors != detection.PigoTopology.Anchors || pp.Scale != 0.6 || !pp.MirrorSecond {
		t.Errorf("unexpected resolver %+v", pp)
	}

	cfg.Policy = "square"
	if _, err := NewResolver(cfg, detection.YuNetTopology); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestPlacement_Rect(t *testing.T) {
	p := Placement{Center: Point{X: 100, Y: 50}, Width: 40, Height: 20}
	if got, want := p.Rect(), image.Rect(80, 40, 120, 60); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

package detection

import (
	"errors"
	"testing"
)

func TestLandmarkSet_Has(t *testing.T) {
	set := LandmarkSet{Points: make([]Landmark, 6)}

	tests := []struct {
		name    string
		indices []int
		expect  bool
	}{
		{"no indices", nil, true},
		{"all in range", []int{0, 3, 5}, true},
		{"one past end", []int{0, 6}, false},
		{"negative", []int{-1}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := set.Has(tc.indices...); got != tc.expect {
				t.Errorf("Has(%v) = %v, want %v", tc.indices, got, tc.expect)
			}
		})
	}

	if (LandmarkSet{}).Has(0) {
		t.Error("empty set should not have index 0")
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.MaxFaces != 1 {
		t.Errorf("MaxFaces = %d, want 1", opts.MaxFaces)
	}
	if opts.MinDetectionConfidence != 0.5 || opts.MinTrackingConfidence != 0.5 {
		t.Errorf("confidences = %v/%v, want 0.5/0.5",
			opts.MinDetectionConfidence, opts.MinTrackingConfidence)
	}
	if err := opts.Check(); err != nil {
		t.Errorf("default options rejected: %v", err)
	}
}

func TestOptions_Check(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero faces", func(o *Options) { o.MaxFaces = 0 }},
		{"detection above one", func(o *Options) { o.MinDetectionConfidence = 1.2 }},
		{"detection negative", func(o *Options) { o.MinDetectionConfidence = -0.1 }},
		{"tracking above one", func(o *Options) { o.MinTrackingConfidence = 2 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			if err := opts.Check(); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Check() = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestGate_DetectionThenTracking(t *testing.T) {
	g := gate{opts: Options{
		MaxFaces:               1,
		MinDetectionConfidence: 0.7,
		MinTrackingConfidence:  0.4,
	}}

	// Not tracking: 0.5 is below the detection threshold
	if got := g.apply([]LandmarkSet{{Confidence: 0.5}}); len(got) != 0 {
		t.Fatalf("expected 0.5 rejected before tracking, got %d sets", len(got))
	}

	// Acquire
	if got := g.apply([]LandmarkSet{{Confidence: 0.8}}); len(got) != 1 {
		t.Fatalf("expected 0.8 accepted, got %d sets", len(got))
	}

	// Tracking: 0.5 now passes the lower tracking threshold
	if got := g.apply([]LandmarkSet{{Confidence: 0.5}}); len(got) != 1 {
		t.Fatalf("expected 0.5 accepted while tracking, got %d sets", len(got))
	}

	// Lose it, then 0.5 is rejected again
	g.apply(nil)
	if got := g.apply([]LandmarkSet{{Confidence: 0.5}}); len(got) != 0 {
		t.Errorf("expected 0.5 rejected after loss, got %d sets", len(got))
	}
}

func TestGate_RanksAndCaps(t *testing.T) {
	g := gate{opts: Options{MaxFaces: 1, MinDetectionConfidence: 0.1, MinTrackingConfidence: 0.1}}

	got := g.apply([]LandmarkSet{
		{Confidence: 0.3},
		{Confidence: 0.9},
		{Confidence: 0.6},
	})

	if len(got) != 1 {
		t.Fatalf("expected MaxFaces cap of 1, got %d", len(got))
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("expected best face first, got confidence %v", got[0].Confidence)
	}
}

func TestBoxExtremes(t *testing.T) {
	pts := boxExtremes(0.25, 0.2, 0.5, 0.6)

	want := []Landmark{
		{X: 0.5, Y: 0.2},  // top
		{X: 0.5, Y: 0.8},  // bottom
		{X: 0.25, Y: 0.5}, // left
		{X: 0.75, Y: 0.5}, // right
	}
	for i, w := range want {
		if diff(pts[i].X, w.X) > 1e-9 || diff(pts[i].Y, w.Y) > 1e-9 {
			t.Errorf("point %d = %+v, want %+v", i, pts[i], w)
		}
	}
}

func TestTopologies_IndicesInRange(t *testing.T) {
	for _, topo := range []Topology{YuNetTopology, PigoTopology, MockTopology} {
		t.Run(topo.Name, func(t *testing.T) {
			full := LandmarkSet{Points: make([]Landmark, topo.Points)}
			if len(topo.Region) != 4 {
				t.Errorf("expected 4 region indices, got %d", len(topo.Region))
			}
			if !full.Has(topo.Region...) {
				t.Errorf("region indices %v out of range for %d points", topo.Region, topo.Points)
			}
			if !full.Has(topo.Anchors[0], topo.Anchors[1]) {
				t.Errorf("anchors %v out of range for %d points", topo.Anchors, topo.Points)
			}
		})
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

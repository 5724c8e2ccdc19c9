package tracking

// Smooth blends a new sample into the previous value with weight alpha:
// previous*(1-alpha) + raw*alpha.
func Smooth(raw, previous, alpha float64) float64 {
	return previous*(1-alpha) + raw*alpha
}

// Filter holds the smoothed placements of one session. Each placement
// field is smoothed independently. Previous values start at zero, so the
// first detection ramps in from the origin; this is expected.
//
// Alpha is fixed and does not adapt to frame rate.
type Filter struct {
	alpha float64
	state []Placement
}

// NewFilter creates a filter with the given EMA weight.
func NewFilter(alpha float64) *Filter {
	return &Filter{alpha: alpha}
}

// Update smooths raw into the filter state and returns a copy of the new
// state. When the number of instances changes the state restarts from zero.
func (f *Filter) Update(raw []Placement) []Placement {
	if len(raw) != len(f.state) {
		f.state = make([]Placement, len(raw))
	}
	for i, r := range raw {
		prev := f.state[i]
		f.state[i] = Placement{
			Center: Point{
				X: Smooth(r.Center.X, prev.Center.X, f.alpha),
				Y: Smooth(r.Center.Y, prev.Center.Y, f.alpha),
			},
			Width:    Smooth(r.Width, prev.Width, f.alpha),
			Height:   Smooth(r.Height, prev.Height, f.alpha),
			Mirrored: r.Mirrored,
		}
	}
	return f.Current()
}

// Current returns a copy of the smoothed placements, or nil before the
// first update.
func (f *Filter) Current() []Placement {
	if f.state == nil {
		return nil
	}
	out := make([]Placement, len(f.state))
	copy(out, f.state)
	return out
}

// Reset clears the smoothed state.
func (f *Filter) Reset() {
	f.state = nil
}

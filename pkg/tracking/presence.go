package tracking

import "time"

// PresenceState is the detected/not-detected state read by the UI.
type PresenceState struct {
	Present       bool      `json:"face_present"`
	LastDetection time.Time `json:"last_detection"` // Zero until the first detection
}

// Presence turns per-frame detection outcomes into a face-present state
// with hysteresis: a face is declared lost only after Timeout of silence,
// checked by a periodic Check independent of frame cadence.
//
// Presence is not safe for concurrent use; the session loop owns it.
type Presence struct {
	timeout  time.Duration
	state    PresenceState
	onChange func(present bool)
}

// NewPresence creates a tracker in the absent state. onChange, if not nil,
// is called on every transition and only on transitions.
func NewPresence(timeout time.Duration, onChange func(present bool)) *Presence {
	return &Presence{timeout: timeout, onChange: onChange}
}

// Observe records a detection at now. It reports whether the state
// changed to present.
func (p *Presence) Observe(now time.Time) bool {
	p.state.LastDetection = now
	if p.state.Present {
		return false
	}
	p.state.Present = true
	p.notify(true)
	return true
}

// Check declares the face lost when more than the timeout has passed since
// the last detection. It reports whether the state changed to absent.
func (p *Presence) Check(now time.Time) bool {
	if !p.state.Present || p.state.LastDetection.IsZero() {
		return false
	}
	if now.Sub(p.state.LastDetection) <= p.timeout {
		return false
	}
	p.state.Present = false
	p.notify(false)
	return true
}

// State returns the current state.
func (p *Presence) State() PresenceState {
	return p.state
}

func (p *Presence) notify(present bool) {
	if p.onChange != nil {
		p.onChange(present)
	}
}

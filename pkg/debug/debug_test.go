package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevEnabled, prevTracking := Output, Enabled, Tracking
	Output = &buf
	t.Cleanup(func() {
		Output, Enabled, Tracking = prevOut, prevEnabled, prevTracking
	})
	return &buf
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		enabled, tracking         bool
		wantEnabled, wantTracking bool
	}{
		{false, false, false, false},
		{true, false, true, false},
		{false, true, true, true},
		{true, true, true, true},
	}

	for _, tt := range tests {
		capture(t)
		Configure(tt.enabled, tt.tracking)
		if Enabled != tt.wantEnabled || Tracking != tt.wantTracking {
			t.Errorf("Configure(%v, %v) = (%v, %v), want (%v, %v)",
				tt.enabled, tt.tracking, Enabled, Tracking, tt.wantEnabled, tt.wantTracking)
		}
	}
}

func TestLogGating(t *testing.T) {
	buf := capture(t)

	Configure(false, false)
	Log("hidden %d\n", 1)
	TrackLog("hidden %d\n", 2)
	Elapsed("detect", time.Now())
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	Configure(true, false)
	Log("shown %d\n", 1)
	TrackLog("hidden %d\n", 2)
	if got := buf.String(); got != "shown 1\n" {
		t.Errorf("debug only output = %q", got)
	}

	buf.Reset()
	Configure(false, true)
	TrackLog("frame %d\n", 7)
	Elapsed("detect", time.Now())
	out := buf.String()
	if !strings.HasPrefix(out, "frame 7\n") || !strings.Contains(out, "detect took") {
		t.Errorf("tracking output = %q", out)
	}
}

package session

import (
	"time"

	"github.com/teslashibe/go-facefilter/pkg/tracking"
)

// Stats counts what the session loop has done.
type Stats struct {
	Frames       uint64 `json:"frames"`        // Frames received from the source
	Detections   uint64 `json:"detections"`    // Results with a usable face
	Skipped      uint64 `json:"skipped"`       // Frames dropped while a detection was in flight
	DetectErrors uint64 `json:"detect_errors"` // Failed detector calls
	Unusable     uint64 `json:"unusable"`      // Faces missing the landmarks the policy needs
	Stale        uint64 `json:"stale"`         // Results discarded because the session was stopping
}

// Snapshot is a read-only view of the session state for the UI.
type Snapshot struct {
	ID            string               `json:"id"`
	Running       bool                 `json:"running"`
	FacePresent   bool                 `json:"face_present"`
	LastDetection time.Time            `json:"last_detection"`
	Placements    []tracking.Placement `json:"placements"`
	CanvasWidth   int                  `json:"canvas_width"`
	CanvasHeight  int                  `json:"canvas_height"`
	Detector      string               `json:"detector"`
	Policy        string               `json:"policy"`
	AssetLoaded   bool                 `json:"asset_loaded"`
	Stats         Stats                `json:"stats"`
}

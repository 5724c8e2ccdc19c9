package session

import "errors"

// Sentinel errors for the session package.
var (
	// ErrDetectorUnavailable indicates the detector could not be configured
	// within the retry budget. Terminal for the session.
	ErrDetectorUnavailable = errors.New("session: detector unavailable")

	// ErrSourceNotReady indicates the video source did not start playing
	// within ReadyTimeout. Terminal for the session.
	ErrSourceNotReady = errors.New("session: video source not ready")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("session: already started")

	// ErrStopped indicates the session was stopped. Sessions are one-shot;
	// create a new one to track again.
	ErrStopped = errors.New("session: stopped")
)

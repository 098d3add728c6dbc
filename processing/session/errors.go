package session

import "github.com/pkg/errors"

var (
	// ErrDeviceUnavailable means the camera could not be opened; the loop
	// never started.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrFrameRead means the camera stopped delivering frames mid-session.
	ErrFrameRead = errors.New("frame read failure")
	// ErrDetector marks a failed detection pass. It never ends a session.
	ErrDetector = errors.New("detector failure")
	// ErrSnapshotWrite marks a failed capture. It never ends a session.
	ErrSnapshotWrite = errors.New("snapshot write failure")
	// ErrDisplay means the display sink rejected a frame.
	ErrDisplay = errors.New("display failure")

	ErrAlreadyStarted = errors.New("session already started")
)

package capture

import (
	"image"

	"github.com/pkg/errors"
)

var (
	// ErrOpen is returned by Open when the device cannot be acquired.
	ErrOpen = errors.New("capture: device not available")
	// ErrNoFrame is returned by Open when the device opened but did not
	// deliver a first frame.
	ErrNoFrame = errors.New("capture: device opened but no frame could be read")
	// ErrRead is returned by Read once the stream has failed.
	ErrRead = errors.New("capture: frame read failed")
	// ErrNotOpen is returned by Read before a successful Open.
	ErrNotOpen = errors.New("capture: source not open")
)

// FrameSource is a pull-model camera. Read blocks until the device delivers
// its next frame, so a loop calling Read runs at the native capture rate.
// Close releases the device and is safe to call more than once, including
// after a failed Open.
type FrameSource interface {
	Open() error
	Read() (image.Image, error)
	Close() error
}

// Opener builds an unopened FrameSource for a camera index.
type Opener func(index int) FrameSource

// Package cv holds the OpenCV-backed capture source and preview window.
// It is kept apart from processing/ so that only binaries which select the
// opencv backends link against OpenCV.
package cv

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"livedetect/processing/capture"
)

type WebcamSource struct {
	deviceID int
	width    int
	height   int

	webcam  *gocv.VideoCapture
	mat     gocv.Mat
	pending image.Image

	closeOnce sync.Once
}

func NewWebcamSource(deviceID, width, height int) *WebcamSource {
	return &WebcamSource{deviceID: deviceID, width: width, height: height}
}

// NewOpener is a capture.Opener for probing OpenCV cameras.
func NewOpener(width, height int) capture.Opener {
	return func(index int) capture.FrameSource {
		return NewWebcamSource(index, width, height)
	}
}

func (we *WebcamSource) Open() error {
	webcam, err := gocv.OpenVideoCapture(we.deviceID)
	if err != nil {
		return fmt.Errorf("%w: camera %d: %w", capture.ErrOpen, we.deviceID, err)
	}
	we.webcam = webcam
	we.mat = gocv.NewMat()

	if !webcam.IsOpened() {
		return fmt.Errorf("%w: camera %d", capture.ErrOpen, we.deviceID)
	}
	if we.width > 0 && we.height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(we.width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(we.height))
	}

	img, err := we.next()
	if err != nil {
		return fmt.Errorf("%w: camera %d: %w", capture.ErrNoFrame, we.deviceID, err)
	}
	we.pending = img
	return nil
}

func (we *WebcamSource) Read() (image.Image, error) {
	if we.webcam == nil {
		return nil, capture.ErrNotOpen
	}
	if img := we.pending; img != nil {
		we.pending = nil
		return img, nil
	}
	img, err := we.next()
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %w", capture.ErrRead, we.deviceID, err)
	}
	return img, nil
}

func (we *WebcamSource) next() (image.Image, error) {
	if ok := we.webcam.Read(&we.mat); !ok || we.mat.Empty() {
		return nil, fmt.Errorf("cannot read webcam device: %d", we.deviceID)
	}
	return we.mat.ToImage()
}

func (we *WebcamSource) Close() (err error) {
	we.closeOnce.Do(func() {
		if we.webcam == nil {
			return
		}
		we.mat.Close()
		err = we.webcam.Close()
	})
	return err
}

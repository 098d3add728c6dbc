// Package detector is the boundary to the object-detection model. Whatever
// the model returns is translated here into models.Detection records so the
// rest of the viewer never sees the model library's types.
package detector

import (
	"image"

	"livedetect/internal/models"
)

// Detector runs one blocking detection pass over frame. It must not modify
// frame. A nil result with a nil error means "no result yet"; callers keep
// whatever they had before.
type Detector interface {
	Detect(frame image.Image, confThreshold float64) (*models.Result, error)
}

// Func adapts a plain function to Detector.
type Func func(frame image.Image, confThreshold float64) (*models.Result, error)

func (f Func) Detect(frame image.Image, confThreshold float64) (*models.Result, error) {
	return f(frame, confThreshold)
}

package models

import (
	"fmt"
	"image"
)

// SchemaVersion is bumped whenever Detection changes shape.
const SchemaVersion = 1

// Detection is one box reported by a detector, in frame pixel coordinates.
type Detection struct {
	Box        Box     `json:"box"`
	ClassID    int     `json:"class_id"`
	Confidence float32 `json:"confidence"`
}

type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

func (b Box) Width() int  { return b.X2 - b.X1 }
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Valid reports whether the box is non-empty with x1<x2 and y1<y2.
func (b Box) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

func (d Detection) Validate() error {
	if !d.Box.Valid() {
		return fmt.Errorf("invalid box %+v", d.Box)
	}
	if d.ClassID < 0 {
		return fmt.Errorf("negative class id %d", d.ClassID)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of [0,1]", d.Confidence)
	}
	return nil
}

// Result is the full output of one detector pass. It is never mutated after
// it has been produced; a newer pass replaces it wholesale.
type Result struct {
	Detections []Detection
	// Size is the size of the frame the detections refer to.
	Size image.Point
}

func NewResult(size image.Point, dets []Detection) *Result {
	cp := make([]Detection, len(dets))
	copy(cp, dets)
	return &Result{Detections: cp, Size: size}
}

func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Detections)
}

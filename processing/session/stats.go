package session

import (
	"fmt"
	"time"
)

type Stats struct {
	Frames           uint64
	Fires            uint64
	DetectorFailures uint64
	Snapshots        uint64

	// RenderFPS is 0 until a second frame has been shown.
	RenderFPS          float64
	TargetInferenceFPS float64
	InferenceLatency   time.Duration

	// DetectionAge is only meaningful when HasDetection is set.
	DetectionAge time.Duration
	HasDetection bool
	Detections   int
}

func (s Stats) RenderFPSText() string {
	if s.RenderFPS <= 0 {
		return "FPS: -"
	}
	return fmt.Sprintf("FPS: %.1f", s.RenderFPS)
}

func (s Stats) DetectionAgeText() string {
	if !s.HasDetection {
		return "Detection age: -"
	}
	return fmt.Sprintf("Detection age: %d ms", s.DetectionAge.Milliseconds())
}

// HUDLines is the diagnostic text drawn on every displayed frame.
func (s Stats) HUDLines() []string {
	return []string{
		s.RenderFPSText(),
		fmt.Sprintf("Inference FPS: %.1f", s.TargetInferenceFPS),
		s.DetectionAgeText(),
		fmt.Sprintf("Frame: %d", s.Frames),
	}
}

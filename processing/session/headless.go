package session

import (
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// HeadlessDisplay drops frames and logs the HUD once per interval. It never
// produces key commands; headless sessions end via MaxFrames or
// cancellation.
type HeadlessDisplay struct {
	logger   *zap.SugaredLogger
	clock    clock.Clock
	interval time.Duration
	last     time.Time
}

func NewHeadlessDisplay(logger *zap.SugaredLogger, clk clock.Clock, interval time.Duration) *HeadlessDisplay {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &HeadlessDisplay{logger: logger, clock: clk, interval: interval}
}

func (d *HeadlessDisplay) Show(_ image.Image, stats Stats) error {
	now := d.clock.Now()
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return nil
	}
	d.last = now
	fields := []interface{}{
		"n", stats.Frames,
		"fps", stats.RenderFPS,
		"inference_fps", stats.TargetInferenceFPS,
		"detections", stats.Detections,
	}
	if stats.HasDetection {
		fields = append(fields, "detection_age_ms", stats.DetectionAge.Milliseconds())
	}
	d.logger.Infow("frame", fields...)
	return nil
}

func (d *HeadlessDisplay) PollKey() Key { return KeyNone }

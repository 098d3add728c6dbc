package capture

import (
	"fmt"

	"livedetect/internal/config"
)

// NewSource builds the ffmpeg-backed source selected by cfg. The OpenCV
// backend lives in internal/cv and is wired by the caller.
func NewSource(cfg *config.Config) (FrameSource, error) {
	switch cfg.Source {
	case config.SourceFFmpeg:
		return NewFFmpegWebcam(cfg.Camera, cfg.Width, cfg.Height), nil
	case config.SourceFile:
		return NewVideoFile(cfg.VideoPath, cfg.Width, cfg.Height), nil
	default:
		return nil, fmt.Errorf("unknown source: %s", cfg.Source)
	}
}

// NewOpener returns an Opener producing ffmpeg webcams of cfg's size.
func NewOpener(cfg *config.Config) Opener {
	return func(index int) FrameSource {
		return NewFFmpegWebcam(index, cfg.Width, cfg.Height)
	}
}

package config

import (
	"fmt"
	"sync"
	"time"
)

type SourceType string

const (
	SourceFFmpeg SourceType = "ffmpeg"
	SourceOpenCV SourceType = "opencv"
	SourceFile   SourceType = "file"
)

var SourcesList = [...]string{
	string(SourceFFmpeg),
	string(SourceOpenCV),
	string(SourceFile),
}

type DisplayType string

const (
	DisplayFyne   DisplayType = "fyne"
	DisplayOpenCV DisplayType = "opencv"
	DisplayNone   DisplayType = "none"
)

var DisplaysList = [...]string{
	string(DisplayFyne),
	string(DisplayOpenCV),
	string(DisplayNone),
}

const (
	DefaultInferenceFPS  = 15.0
	DefaultConfThreshold = 0.5
	DefaultIoUThreshold  = 0.45
	DefaultProbeCount    = 5
	DefaultModelPath     = "yolov8n.onnx"
	DefaultInputSize     = 640
	DefaultWindowTitle   = "YOLO Object Detection"
)

// Config holds every tunable of a viewer session. Only the confidence
// threshold may change while a session is running; it is guarded by mu.
type Config struct {
	mu sync.RWMutex

	Camera    int
	Source    SourceType
	VideoPath string
	Width     int
	Height    int

	InferenceFPS  float64
	ConfThreshold float64
	IoUThreshold  float64

	ModelPath   string
	ORTLibPath  string
	InputSize   int
	WindowTitle string

	Display    DisplayType
	MaxFrames  int
	ProbeCount int
	CaptureDir string
	Debug      bool
}

func NewDefaultConfig() *Config {
	return &Config{
		Camera:        0,
		Source:        SourceFFmpeg,
		Width:         640,
		Height:        480,
		InferenceFPS:  DefaultInferenceFPS,
		ConfThreshold: DefaultConfThreshold,
		IoUThreshold:  DefaultIoUThreshold,
		ModelPath:     DefaultModelPath,
		InputSize:     DefaultInputSize,
		WindowTitle:   DefaultWindowTitle,
		Display:       DisplayFyne,
		ProbeCount:    DefaultProbeCount,
		CaptureDir:    ".",
	}
}

func (c *Config) GetConfThreshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ConfThreshold
}

func (c *Config) SetConfThreshold(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ConfThreshold = v
}

// InferenceInterval is the pacer interval derived from InferenceFPS.
func (c *Config) InferenceInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.InferenceFPS)
}

func (c *Config) Validate() error {
	if c.Camera < 0 {
		return fmt.Errorf("camera index must be non-negative, got %d", c.Camera)
	}
	switch c.Source {
	case SourceFFmpeg, SourceOpenCV:
	case SourceFile:
		if c.VideoPath == "" {
			return fmt.Errorf("source %q requires a video path", c.Source)
		}
	default:
		return fmt.Errorf("unknown source: %s", c.Source)
	}
	switch c.Display {
	case DisplayFyne, DisplayOpenCV, DisplayNone:
	default:
		return fmt.Errorf("unknown display: %s", c.Display)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("capture size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.InferenceFPS <= 0 {
		return fmt.Errorf("inference fps must be positive, got %v", c.InferenceFPS)
	}
	if t := c.GetConfThreshold(); t < 0 || t > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %v", t)
	}
	if c.IoUThreshold <= 0 || c.IoUThreshold > 1 {
		return fmt.Errorf("iou threshold must be in (0,1], got %v", c.IoUThreshold)
	}
	if c.InputSize <= 0 || c.InputSize%32 != 0 {
		return fmt.Errorf("model input size must be a positive multiple of 32, got %d", c.InputSize)
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("max frames must be non-negative, got %d", c.MaxFrames)
	}
	if c.ProbeCount <= 0 {
		return fmt.Errorf("probe count must be positive, got %d", c.ProbeCount)
	}
	return nil
}

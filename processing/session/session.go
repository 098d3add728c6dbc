// Package session runs the capture → detect → render → display loop.
//
// The loop is synchronous: each iteration captures a frame, asks the pacer
// whether this frame should go to the detector, draws the most recent
// detection result over it, shows it and polls the keyboard, all before the
// next frame is read. A detector slower than the camera simply leaves the
// overlay stale for longer; it never builds a queue.
package session

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"livedetect/internal/models"
	"livedetect/processing/capture"
	"livedetect/processing/detector"
	"livedetect/processing/overlay"
	"livedetect/processing/pacer"
)

type State int32

const (
	Idle State = iota
	Opening
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Opening:
		return "opening"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Key is a keyboard command polled from the display.
type Key rune

const (
	KeyNone    Key = 0
	KeyQuit    Key = 'q'
	KeyCapture Key = 'c'
)

// KeyFromRune maps a typed character to a command, ignoring case.
func KeyFromRune(r rune) Key {
	switch r {
	case 'q', 'Q':
		return KeyQuit
	case 'c', 'C':
		return KeyCapture
	}
	return KeyNone
}

// Display is the output sink. PollKey must not block.
type Display interface {
	Show(frame image.Image, stats Stats) error
	PollKey() Key
}

type Options struct {
	Source   capture.FrameSource
	Detector detector.Detector
	Renderer *overlay.Renderer
	Display  Display
	Pacer    *pacer.Pacer

	// ConfThreshold is read on every fire so it may change mid-session.
	ConfThreshold func() float64

	Snapshots *SnapshotWriter
	Clock     clock.Clock
	Logger    *zap.SugaredLogger

	// MaxFrames stops the session successfully after that many displayed
	// frames. Zero means no limit.
	MaxFrames int
}

type Session struct {
	opts Options

	state     atomic.Int32
	cache     atomic.Pointer[models.Result]
	closeOnce sync.Once

	mu    sync.RWMutex
	stats Stats
	// resultAt is the fire time of the cached result.
	resultAt time.Time
}

func New(opts Options) (*Session, error) {
	if opts.Source == nil {
		return nil, errors.New("session requires a frame source")
	}
	if opts.Detector == nil {
		return nil, errors.New("session requires a detector")
	}
	if opts.Renderer == nil {
		return nil, errors.New("session requires an overlay renderer")
	}
	if opts.Display == nil {
		return nil, errors.New("session requires a display")
	}
	if opts.Pacer == nil {
		return nil, errors.New("session requires a pacer")
	}
	if opts.MaxFrames < 0 {
		return nil, fmt.Errorf("max frames must be non-negative, got %d", opts.MaxFrames)
	}
	if opts.ConfThreshold == nil {
		opts.ConfThreshold = func() float64 { return 0.5 }
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Snapshots == nil {
		opts.Snapshots = NewSnapshotWriter(".")
	}

	s := &Session{opts: opts}
	s.stats.TargetInferenceFPS = opts.Pacer.TargetFPS()
	return s, nil
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Result is the detection result currently drawn over frames, or nil.
func (s *Session) Result() *models.Result {
	return s.cache.Load()
}

// Stats is a snapshot safe to take from any goroutine.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Run opens the source and pumps frames until a quit command, ctx
// cancellation, MaxFrames, or a failure. The source is closed exactly once
// on every path out of Run. Quit and cancellation return nil.
func (s *Session) Run(ctx context.Context) (err error) {
	if !s.state.CompareAndSwap(int32(Idle), int32(Opening)) {
		return ErrAlreadyStarted
	}
	log := s.opts.Logger

	defer func() {
		s.release()
		s.state.Store(int32(Stopped))
		st := s.Stats()
		log.Infow("session stopped",
			"frames", st.Frames,
			"fires", st.Fires,
			"detector_failures", st.DetectorFailures,
			"snapshots", st.Snapshots,
			"error", err)
	}()

	if err := s.opts.Source.Open(); err != nil {
		log.Errorf("error: couldn't open camera: %v", err)
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	log.Info(`starting detection… press "q" to quit`)
	log.Info(`press "c" to capture & save current frame`)

	s.opts.Pacer.Reset()
	s.state.Store(int32(Running))

	for {
		select {
		case <-ctx.Done():
			log.Info("session cancelled")
			return nil
		default:
		}

		frame, err := s.opts.Source.Read()
		if err != nil {
			log.Errorf("error: couldn't read frame: %v", err)
			return fmt.Errorf("%w: %w", ErrFrameRead, err)
		}

		shown, stats := s.step(frame)

		if err := s.opts.Display.Show(shown, stats); err != nil {
			return fmt.Errorf("%w: %w", ErrDisplay, err)
		}

		switch s.opts.Display.PollKey() {
		case KeyQuit:
			return nil
		case KeyCapture:
			s.capture(shown, stats.Frames)
		}

		if s.opts.MaxFrames > 0 && stats.Frames >= uint64(s.opts.MaxFrames) {
			return nil
		}
	}
}

// step runs one mirrored frame through pacer, detector and renderer.
func (s *Session) step(raw image.Image) (image.Image, Stats) {
	frame := imaging.FlipH(raw)
	now := s.opts.Clock.Now()

	if s.opts.Pacer.Update(now) == pacer.Fire {
		s.detect(frame, now)
	}

	rendered := s.opts.Renderer.Render(frame, s.cache.Load())

	s.mu.Lock()
	s.stats.Frames++
	s.stats.RenderFPS = s.opts.Pacer.RenderFPS()
	if !s.resultAt.IsZero() {
		s.stats.HasDetection = true
		s.stats.DetectionAge = now.Sub(s.resultAt)
	}
	s.stats.Detections = s.cache.Load().Len()
	stats := s.stats
	s.mu.Unlock()

	return s.opts.Renderer.DrawHUD(rendered, stats.HUDLines()), stats
}

func (s *Session) detect(frame image.Image, firedAt time.Time) {
	start := s.opts.Clock.Now()
	res, err := s.opts.Detector.Detect(frame, s.opts.ConfThreshold())
	latency := s.opts.Clock.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Fires++
	s.stats.InferenceLatency = latency

	if err != nil {
		s.stats.DetectorFailures++
		s.opts.Logger.Warnw("keeping previous detections", "error", fmt.Errorf("%w: %w", ErrDetector, err))
		return
	}
	if res == nil {
		return
	}
	s.cache.Store(res)
	s.resultAt = firedAt
}

func (s *Session) capture(frame image.Image, frameCount uint64) {
	path, err := s.opts.Snapshots.Save(frame, frameCount)
	if err != nil {
		s.opts.Logger.Warnw("capture failed", "error", err)
		return
	}
	s.mu.Lock()
	s.stats.Snapshots++
	s.mu.Unlock()
	s.opts.Logger.Infof("saved %s", path)
}

func (s *Session) release() {
	s.closeOnce.Do(func() {
		if err := s.opts.Source.Close(); err != nil {
			s.opts.Logger.Warnw("closing frame source", "error", err)
		}
	})
}

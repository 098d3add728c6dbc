package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"livedetect/internal/config"
	"livedetect/internal/cv"
	"livedetect/internal/models"
	"livedetect/internal/ui"
	"livedetect/processing/capture"
	"livedetect/processing/detector"
	"livedetect/processing/overlay"
	"livedetect/processing/pacer"
	"livedetect/processing/session"
)

func opener(cfg *config.Config) capture.Opener {
	if cfg.Source == config.SourceOpenCV {
		return cv.NewOpener(cfg.Width, cfg.Height)
	}
	return capture.NewOpener(cfg)
}

func newSource(cfg *config.Config) (capture.FrameSource, error) {
	if cfg.Source == config.SourceOpenCV {
		return cv.NewWebcamSource(cfg.Camera, cfg.Width, cfg.Height), nil
	}
	return capture.NewSource(cfg)
}

func runProbe(cfg *config.Config, logger *zap.SugaredLogger) []int {
	logger.Infof("probing %d camera indices…", cfg.ProbeCount)
	available := capture.AvailableIndices(capture.Enumerate(opener(cfg), cfg.ProbeCount, logger))
	if len(available) == 0 {
		logger.Info("no cameras found")
	} else {
		logger.Infof("available cameras: %v", available)
	}
	return available
}

// chooseCamera probes for cameras and, on a terminal, lets the user pick
// one. ok is false when no camera was found.
func chooseCamera(cfg *config.Config, logger *zap.SugaredLogger) (index int, ok bool, err error) {
	available := runProbe(cfg, logger)
	if len(available) == 0 {
		return 0, false, nil
	}
	index = available[0]
	if len(available) == 1 || !term.IsTerminal(int(os.Stdin.Fd())) {
		return index, true, nil
	}

	options := make([]huh.Option[int], 0, len(available))
	for _, i := range available {
		options = append(options, huh.NewOption(fmt.Sprintf("camera %d", i), i))
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Select camera").
			Options(options...).
			Value(&index),
	))
	if err := form.Run(); err != nil {
		return 0, false, errors.Wrap(err, "camera selection")
	}
	return index, true, nil
}

func runViewer(parent context.Context, cameraSet bool, cfg *config.Config, logger *zap.SugaredLogger) (err error) {
	if !cameraSet && cfg.Source != config.SourceFile {
		index, ok, err := chooseCamera(cfg, logger)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cfg.Camera = index
	}
	logger.Infof("using camera index: %d", cfg.Camera)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	det, err := detector.NewONNXDetector(detector.ONNXOptions{
		ModelPath:    cfg.ModelPath,
		LibraryPath:  cfg.ORTLibPath,
		InputSize:    cfg.InputSize,
		IoUThreshold: cfg.IoUThreshold,
	}, logger.Named("detector"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, det.Close())
	}()

	renderer, err := overlay.NewRenderer(
		overlay.NewPalette(time.Now().UnixNano(), overlay.MinPaletteSize),
		models.DefaultLabels(),
	)
	if err != nil {
		return err
	}

	p, err := pacer.NewFromFPS(cfg.InferenceFPS)
	if err != nil {
		return err
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	opts := session.Options{
		Source:        src,
		Detector:      det,
		Renderer:      renderer,
		Pacer:         p,
		ConfThreshold: cfg.GetConfThreshold,
		Snapshots:     session.NewSnapshotWriter(cfg.CaptureDir),
		Clock:         clock.New(),
		Logger:        logger.Named("session"),
		MaxFrames:     cfg.MaxFrames,
	}

	switch cfg.Display {
	case config.DisplayFyne:
		app := ui.CreateApp(cfg, logger.Named("ui"))
		opts.Display = app
		s, err := session.New(opts)
		if err != nil {
			return err
		}
		return app.Run(func() error { return s.Run(ctx) })

	case config.DisplayOpenCV:
		window := cv.NewWindow(cfg.WindowTitle)
		defer func() {
			err = multierr.Append(err, window.Close())
		}()
		opts.Display = window

	default:
		opts.Display = session.NewHeadlessDisplay(logger.Named("headless"), opts.Clock, time.Second)
	}

	s, err := session.New(opts)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

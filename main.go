package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"livedetect/internal/config"
	"livedetect/internal/logging"
)

const (
	flagCamera     = "camera"
	flagSource     = "source"
	flagVideo      = "video"
	flagWidth      = "width"
	flagHeight     = "height"
	flagFPS        = "inference-fps"
	flagConf       = "conf"
	flagIoU        = "iou"
	flagModel      = "model"
	flagORTLib     = "ort-lib"
	flagInputSize  = "input-size"
	flagDisplay    = "display"
	flagTitle      = "title"
	flagMaxFrames  = "max-frames"
	flagProbeCount = "probe-count"
	flagCaptureDir = "capture-dir"
	flagDebug      = "debug"
)

func envVar(name string) []string {
	return []string{"LIVEDETECT_" + name}
}

func main() {
	var logger *zap.SugaredLogger
	defaults := config.NewDefaultConfig()

	app := &cli.App{
		Name:  "livedetect",
		Usage: "live webcam object detection viewer",
		Flags: flags(defaults),
		Before: func(c *cli.Context) error {
			var err error
			logger, err = logging.NewLogger("livedetect", c.Bool(flagDebug))
			return err
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				//nolint:errcheck
				logger.Sync()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			return runViewer(c.Context, c.IsSet(flagCamera), cfg, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "probe",
				Usage: "list camera indices that open and deliver frames",
				Action: func(c *cli.Context) error {
					cfg, err := configFromFlags(c)
					if err != nil {
						return err
					}
					runProbe(cfg, logger)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func flags(defaults *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    flagCamera,
			Aliases: []string{"c"},
			EnvVars: envVar("CAMERA"),
			Usage:   "camera index; when unset the available cameras are probed",
		},
		&cli.StringFlag{
			Name:    flagSource,
			Value:   string(defaults.Source),
			EnvVars: envVar("SOURCE"),
			Usage:   "capture backend: ffmpeg, opencv or file",
		},
		&cli.StringFlag{
			Name:    flagVideo,
			EnvVars: envVar("VIDEO"),
			Usage:   "video `FILE` played by the file source",
		},
		&cli.IntFlag{
			Name:    flagWidth,
			Value:   defaults.Width,
			EnvVars: envVar("WIDTH"),
			Usage:   "capture width",
		},
		&cli.IntFlag{
			Name:    flagHeight,
			Value:   defaults.Height,
			EnvVars: envVar("HEIGHT"),
			Usage:   "capture height",
		},
		&cli.Float64Flag{
			Name:    flagFPS,
			Value:   defaults.InferenceFPS,
			EnvVars: envVar("INFERENCE_FPS"),
			Usage:   "target detector invocations per second",
		},
		&cli.Float64Flag{
			Name:    flagConf,
			Value:   defaults.ConfThreshold,
			EnvVars: envVar("CONF"),
			Usage:   "minimum detection confidence",
		},
		&cli.Float64Flag{
			Name:    flagIoU,
			Value:   defaults.IoUThreshold,
			EnvVars: envVar("IOU"),
			Usage:   "non-maximum suppression overlap threshold",
		},
		&cli.StringFlag{
			Name:    flagModel,
			Value:   defaults.ModelPath,
			EnvVars: envVar("MODEL"),
			Usage:   "YOLOv8 ONNX model `FILE`",
		},
		&cli.StringFlag{
			Name:    flagORTLib,
			EnvVars: envVar("ORT_LIB"),
			Usage:   "path to the onnxruntime shared library",
		},
		&cli.IntFlag{
			Name:    flagInputSize,
			Value:   defaults.InputSize,
			EnvVars: envVar("INPUT_SIZE"),
			Usage:   "model input resolution",
		},
		&cli.StringFlag{
			Name:    flagDisplay,
			Value:   string(defaults.Display),
			EnvVars: envVar("DISPLAY"),
			Usage:   "display backend: fyne, opencv or none",
		},
		&cli.StringFlag{
			Name:    flagTitle,
			Value:   defaults.WindowTitle,
			EnvVars: envVar("TITLE"),
			Usage:   "window title",
		},
		&cli.IntFlag{
			Name:    flagMaxFrames,
			EnvVars: envVar("MAX_FRAMES"),
			Usage:   "stop after this many frames (0 = run until quit)",
		},
		&cli.IntFlag{
			Name:    flagProbeCount,
			Value:   defaults.ProbeCount,
			EnvVars: envVar("PROBE_COUNT"),
			Usage:   "number of camera indices to probe",
		},
		&cli.StringFlag{
			Name:    flagCaptureDir,
			Value:   defaults.CaptureDir,
			EnvVars: envVar("CAPTURE_DIR"),
			Usage:   "directory for captured frames",
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			EnvVars: envVar("DEBUG"),
			Usage:   "enable debug logging",
		},
	}
}

func configFromFlags(c *cli.Context) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	cfg.Camera = c.Int(flagCamera)
	cfg.Source = config.SourceType(c.String(flagSource))
	cfg.VideoPath = c.String(flagVideo)
	cfg.Width = c.Int(flagWidth)
	cfg.Height = c.Int(flagHeight)
	cfg.InferenceFPS = c.Float64(flagFPS)
	cfg.SetConfThreshold(c.Float64(flagConf))
	cfg.IoUThreshold = c.Float64(flagIoU)
	cfg.ModelPath = c.String(flagModel)
	cfg.ORTLibPath = c.String(flagORTLib)
	cfg.InputSize = c.Int(flagInputSize)
	cfg.Display = config.DisplayType(c.String(flagDisplay))
	cfg.WindowTitle = c.String(flagTitle)
	cfg.MaxFrames = c.Int(flagMaxFrames)
	cfg.ProbeCount = c.Int(flagProbeCount)
	cfg.CaptureDir = c.String(flagCaptureDir)
	cfg.Debug = c.Bool(flagDebug)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

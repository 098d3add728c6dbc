package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"livedetect/internal/config"
)

func parseArgs(t *testing.T, args ...string) (*config.Config, bool, error) {
	t.Helper()
	var (
		cfg       *config.Config
		cameraSet bool
	)
	app := &cli.App{
		Name:  "livedetect",
		Flags: flags(config.NewDefaultConfig()),
		Action: func(c *cli.Context) error {
			var err error
			cfg, err = configFromFlags(c)
			cameraSet = c.IsSet(flagCamera)
			return err
		},
	}
	err := app.Run(append([]string{"livedetect"}, args...))
	return cfg, cameraSet, err
}

func TestDefaultFlags(t *testing.T) {
	cfg, cameraSet, err := parseArgs(t)
	require.NoError(t, err)
	assert.False(t, cameraSet)
	assert.Equal(t, config.SourceFFmpeg, cfg.Source)
	assert.Equal(t, config.DisplayFyne, cfg.Display)
	assert.Equal(t, config.DefaultInferenceFPS, cfg.InferenceFPS)
	assert.Equal(t, config.DefaultConfThreshold, cfg.GetConfThreshold())
	assert.Equal(t, config.DefaultWindowTitle, cfg.WindowTitle)
}

func TestFlagsAndEnv(t *testing.T) {
	t.Setenv("LIVEDETECT_INFERENCE_FPS", "10")

	cfg, cameraSet, err := parseArgs(t,
		"--camera", "2",
		"--conf", "0.3",
		"--display", "none",
		"--max-frames", "100",
	)
	require.NoError(t, err)
	assert.True(t, cameraSet)
	assert.Equal(t, 2, cfg.Camera)
	assert.Equal(t, 0.3, cfg.GetConfThreshold())
	assert.Equal(t, 10.0, cfg.InferenceFPS)
	assert.Equal(t, config.DisplayNone, cfg.Display)
	assert.Equal(t, 100, cfg.MaxFrames)
}

func TestInvalidFlags(t *testing.T) {
	_, _, err := parseArgs(t, "--conf", "1.5")
	assert.Error(t, err)

	_, _, err = parseArgs(t, "--source", "file")
	assert.Error(t, err)
}

package capture

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livedetect/internal/config"
)

type probeSource struct {
	openErr error
	readErr error
	size    image.Point
	closes  *int
}

func (s *probeSource) Open() error { return s.openErr }

func (s *probeSource) Read() (image.Image, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return image.NewRGBA(image.Rectangle{Max: s.size}), nil
}

func (s *probeSource) Close() error {
	*s.closes++
	return nil
}

func TestEnumerate(t *testing.T) {
	closes := 0
	open := func(index int) FrameSource {
		switch index {
		case 0:
			return &probeSource{size: image.Pt(640, 480), closes: &closes}
		case 1:
			return &probeSource{openErr: errors.Wrap(ErrNoFrame, "cam 1"), closes: &closes}
		case 2:
			return &probeSource{readErr: ErrRead, closes: &closes}
		case 3:
			return &probeSource{size: image.Pt(1280, 720), closes: &closes}
		default:
			return &probeSource{openErr: ErrOpen, closes: &closes}
		}
	}

	infos := Enumerate(open, 5, zap.NewNop().Sugar())
	require.Len(t, infos, 5)
	assert.Equal(t, 5, closes)

	assert.Equal(t, DeviceAvailable, infos[0].State)
	assert.Equal(t, image.Pt(640, 480), infos[0].Size)
	assert.Equal(t, DeviceNoFrames, infos[1].State)
	assert.Equal(t, DeviceNoFrames, infos[2].State)
	assert.Equal(t, DeviceUnavailable, infos[4].State)
	assert.ErrorIs(t, infos[4].Err, ErrOpen)

	assert.Equal(t, []int{0, 3}, AvailableIndices(infos))
	assert.Equal(t, "camera 3: available, resolution: 1280x720", infos[3].String())
	assert.Equal(t, "camera 1: opens but can't read frames", infos[1].String())
	assert.Equal(t, "camera 4: not available", infos[4].String())
}

func TestEnumerateNoDevices(t *testing.T) {
	closes := 0
	open := func(int) FrameSource { return &probeSource{openErr: ErrOpen, closes: &closes} }
	assert.Empty(t, AvailableIndices(Enumerate(open, 3, nil)))
	assert.Equal(t, 3, closes)
}

func TestUnopenedSources(t *testing.T) {
	for _, src := range []FrameSource{NewFFmpegWebcam(0, 64, 48), NewVideoFile("clip.mp4", 64, 48)} {
		_, err := src.Read()
		assert.ErrorIs(t, err, ErrNotOpen)
		assert.NoError(t, src.Close())
		assert.NoError(t, src.Close())
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.NewDefaultConfig()
	src, err := NewSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FFmpegWebcam{}, src)

	cfg.Source = config.SourceFile
	cfg.VideoPath = "clip.mp4"
	src, err = NewSource(cfg)
	require.NoError(t, err)
	assert.IsType(t, &VideoFile{}, src)

	cfg.Source = config.SourceOpenCV
	_, err = NewSource(cfg)
	assert.Error(t, err)

	assert.IsType(t, &FFmpegWebcam{}, NewOpener(cfg)(2))
}

func TestParseDShowDevices(t *testing.T) {
	out := `[dshow @ 0000] "Integrated Camera" (video)
[dshow @ 0000]   Alternative name "@device_pnp_1"
[dshow @ 0000] "Microphone" (audio)
[dshow @ 0000] "USB Cam" (video)
[dshow @ 0000] "USB Cam" (video)`
	assert.Equal(t, []string{"Integrated Camera", "USB Cam"}, parseDShowDevices(out))
}

func TestParseProbe(t *testing.T) {
	w, h, err := parseProbe([]byte(`{"streams":[{"width":1920,"height":1080}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	_, _, err = parseProbe([]byte(`{"streams":[]}`))
	assert.Error(t, err)
}

func TestDevicePath(t *testing.T) {
	assert.Equal(t, "/dev/video2", DevicePath(2))
}

package capture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installFakeFFmpeg puts a shell script named ffmpeg first on PATH.
func installFakeFFmpeg(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg needs a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// stubDevices replaces the v4l2 node check with a fixed set of nodes.
func stubDevices(t *testing.T, present ...string) {
	t.Helper()
	prev := statDevice
	statDevice = func(name string) (os.FileInfo, error) {
		for _, p := range present {
			if p == name {
				return nil, nil
			}
		}
		return nil, os.ErrNotExist
	}
	t.Cleanup(func() { statDevice = prev })
}

func webcamOpener(width, height int) Opener {
	return func(index int) FrameSource {
		return NewFFmpegWebcam(index, width, height)
	}
}

func TestFFmpegWebcamWithoutFrames(t *testing.T) {
	installFakeFFmpeg(t, "exit 0")
	stubDevices(t, DevicePath(0), DevicePath(1))

	infos := Enumerate(webcamOpener(4, 4), 2, nil)
	require.Len(t, infos, 2)
	for i, info := range infos {
		assert.Equal(t, DeviceNoFrames, info.State)
		assert.True(t, errors.Is(info.Err, ErrNoFrame), info.Err)
		assert.True(t, errors.Is(info.Err, io.EOF), info.Err)
		assert.Equal(t, fmt.Sprintf("camera %d: opens but can't read frames", i), info.String())
	}
	assert.Empty(t, AvailableIndices(infos))
}

func TestFFmpegWebcamMissingDeviceNode(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("device nodes are only checked for v4l2")
	}
	installFakeFFmpeg(t, "exit 0")
	stubDevices(t, DevicePath(1))

	infos := Enumerate(webcamOpener(4, 4), 2, nil)
	require.Len(t, infos, 2)

	assert.Equal(t, DeviceUnavailable, infos[0].State)
	assert.True(t, errors.Is(infos[0].Err, ErrOpen), infos[0].Err)
	assert.True(t, errors.Is(infos[0].Err, os.ErrNotExist), infos[0].Err)
	assert.Equal(t, "camera 0: not available", infos[0].String())

	assert.Equal(t, DeviceNoFrames, infos[1].State)
}

func TestFFmpegWebcamDeliversFrames(t *testing.T) {
	// two 4x4 rgba frames, then end of stream
	installFakeFFmpeg(t, "head -c 128 /dev/zero")
	stubDevices(t, DevicePath(0))

	infos := Enumerate(webcamOpener(4, 4), 1, nil)
	require.Len(t, infos, 1)
	assert.Equal(t, DeviceAvailable, infos[0].State)
	assert.Equal(t, "camera 0: available, resolution: 4x4", infos[0].String())
	assert.Equal(t, []int{0}, AvailableIndices(infos))

	cam := NewFFmpegWebcam(0, 4, 4)
	require.NoError(t, cam.Open())
	defer cam.Close()

	for i := 0; i < 2; i++ {
		img, err := cam.Read()
		require.NoError(t, err)
		assert.Equal(t, 4, img.Bounds().Dx())
	}
	_, err := cam.Read()
	assert.True(t, errors.Is(err, ErrRead), err)
	assert.True(t, errors.Is(err, io.EOF), err)
}

func TestPipeReadKeepsCause(t *testing.T) {
	p := newFFmpegPipe(2, 2, nil)
	p.stdout = io.NopCloser(bytes.NewReader(make([]byte, 10)))
	p.buffer = make([]byte, 2*2*bytesPerPixel)

	_, err := p.read()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRead), err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), err)

	// failures are sticky
	_, again := p.read()
	assert.Equal(t, err, again)
}

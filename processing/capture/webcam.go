package capture

import (
	"bytes"
	"fmt"
	"image"
	"os/exec"
	"os"
	"regexp"
	"runtime"
)

// FFmpegWebcam captures a local camera through an ffmpeg child process,
// scaled to a fixed size. Frames arrive at the device's native rate.
type FFmpegWebcam struct {
	index  int
	device string
	width  int
	height int

	pipe    *ffmpegPipe
	pending image.Image
}

func NewFFmpegWebcam(index, width, height int) *FFmpegWebcam {
	return &FFmpegWebcam{index: index, width: width, height: height}
}

func (ws *FFmpegWebcam) args() ([]string, error) {
	scale := fmt.Sprintf("scale=%d:%d", ws.width, ws.height)
	tail := []string{
		"-vf", scale,
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}

	var head []string
	switch runtime.GOOS {
	case "windows":
		cameras, err := ListCameras()
		if err != nil {
			return nil, err
		}
		if ws.index >= len(cameras) {
			return nil, fmt.Errorf("camera %d not found among %d devices", ws.index, len(cameras))
		}
		ws.device = cameras[ws.index]
		head = []string{"-f", "dshow", "-i", fmt.Sprintf("video=%s", ws.device)}
	case "darwin":
		ws.device = fmt.Sprintf("%d:none", ws.index)
		head = []string{"-f", "avfoundation", "-framerate", "30", "-i", ws.device}
	default:
		ws.device = DevicePath(ws.index)
		if _, err := statDevice(ws.device); err != nil {
			return nil, err
		}
		head = []string{"-f", "v4l2", "-i", ws.device}
	}
	return append(append([]string{"-loglevel", "error"}, head...), tail...), nil
}

// statDevice checks that a v4l2 node exists before ffmpeg is started on it.
var statDevice = os.Stat

// Open starts ffmpeg and waits for the first frame, so an index that does
// not correspond to a working camera fails here rather than on first Read.
// A device that cannot be started fails with ErrOpen; one that starts but
// delivers no frame fails with ErrNoFrame.
func (ws *FFmpegWebcam) Open() error {
	args, err := ws.args()
	if err != nil {
		return fmt.Errorf("%w: camera %d: %w", ErrOpen, ws.index, err)
	}
	ws.pipe = newFFmpegPipe(ws.width, ws.height, args)
	if err := ws.pipe.start(); err != nil {
		return fmt.Errorf("%w: camera %d: %w", ErrOpen, ws.index, err)
	}

	first, err := ws.pipe.read()
	if err != nil {
		ws.pipe.close()
		return fmt.Errorf("%w: camera %d (%s): %w", ErrNoFrame, ws.index, ws.device, err)
	}
	ws.pending = first
	return nil
}

func (ws *FFmpegWebcam) Read() (image.Image, error) {
	if ws.pipe == nil {
		return nil, ErrNotOpen
	}
	if ws.pending != nil {
		img := ws.pending
		ws.pending = nil
		return img, nil
	}
	return ws.pipe.read()
}

func (ws *FFmpegWebcam) Close() error {
	if ws.pipe == nil {
		return nil
	}
	ws.pending = nil
	return ws.pipe.close()
}

func (ws *FFmpegWebcam) Device() string { return ws.device }

// DevicePath is the v4l2 node for a camera index.
func DevicePath(index int) string {
	return fmt.Sprintf("/dev/video%d", index)
}

var dshowVideoDevice = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

// ListCameras returns the DirectShow video device names on Windows and the
// v4l2 device nodes elsewhere, in index order.
func ListCameras() ([]string, error) {
	var cameras []string

	if runtime.GOOS == "windows" {
		cmd := exec.Command("ffmpeg", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		// ffmpeg always exits non-zero for the dummy input
		cmd.Run()

		cameras = parseDShowDevices(stderr.String())
	} else {
		for i := 0; i < 10; i++ {
			cameras = append(cameras, DevicePath(i))
		}
	}

	return cameras, nil
}

func parseDShowDevices(output string) []string {
	var cameras []string
	seen := make(map[string]bool)
	for _, m := range dshowVideoDevice.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			cameras = append(cameras, name)
			seen[name] = true
		}
	}
	return cameras
}

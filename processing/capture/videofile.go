package capture

import (
	"encoding/json"
	"fmt"
	"image"
	"os/exec"
)

// VideoFile plays a recorded clip through the FrameSource contract, paced at
// the clip's own frame rate. Useful for running the viewer without a camera.
type VideoFile struct {
	path   string
	width  int
	height int

	pipe *ffmpegPipe
}

func NewVideoFile(path string, width, height int) *VideoFile {
	return &VideoFile{path: path, width: width, height: height}
}

func (vf *VideoFile) Open() error {
	if _, _, err := probeVideoDimensions(vf.path); err != nil {
		return fmt.Errorf("%w: probe %s: %w", ErrOpen, vf.path, err)
	}

	args := []string{
		"-loglevel", "error",
		"-re",
		"-i", vf.path,
		"-vf", fmt.Sprintf("scale=%d:%d:flags=neighbor", vf.width, vf.height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}
	vf.pipe = newFFmpegPipe(vf.width, vf.height, args)
	if err := vf.pipe.start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpen, vf.path, err)
	}
	return nil
}

func (vf *VideoFile) Read() (image.Image, error) {
	if vf.pipe == nil {
		return nil, ErrNotOpen
	}
	return vf.pipe.read()
}

func (vf *VideoFile) Close() error {
	if vf.pipe == nil {
		return nil
	}
	return vf.pipe.close()
}

type probeData struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

func probeVideoDimensions(path string) (int, int, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, err
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (int, int, error) {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, 0, err
	}

	if len(data.Streams) == 0 {
		return 0, 0, fmt.Errorf("no video streams found")
	}

	return data.Streams[0].Width, data.Streams[0].Height, nil
}

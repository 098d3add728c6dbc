package capture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"
)

const bytesPerPixel = 4

// ffmpegPipe reads fixed-size rgba frames from an ffmpeg child process.
type ffmpegPipe struct {
	closeOnce sync.Once

	args   []string
	width  int
	height int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr lockedBuffer
	buffer []byte
	failed error
}

// lockedBuffer collects ffmpeg's stderr, which exec copies from its own
// goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newFFmpegPipe(width, height int, args []string) *ffmpegPipe {
	return &ffmpegPipe{args: args, width: width, height: height}
}

func (p *ffmpegPipe) start() error {
	p.cmd = exec.Command("ffmpeg", p.args...)
	p.cmd.Stderr = &p.stderr

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	p.stdout = stdout

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w. Details: %s", err, p.stderr.String())
	}
	p.buffer = make([]byte, p.width*p.height*bytesPerPixel)
	return nil
}

func (p *ffmpegPipe) read() (image.Image, error) {
	if p.stdout == nil {
		return nil, ErrNotOpen
	}
	if p.failed != nil {
		return nil, p.failed
	}
	if _, err := io.ReadFull(p.stdout, p.buffer); err != nil {
		p.failed = fmt.Errorf("%w: %w%s", ErrRead, err, p.details())
		return nil, p.failed
	}

	pixelData := make([]byte, len(p.buffer))
	copy(pixelData, p.buffer)

	return &image.RGBA{
		Pix:    pixelData,
		Stride: p.width * bytesPerPixel,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}, nil
}

func (p *ffmpegPipe) details() string {
	msg := strings.TrimSpace(p.stderr.String())
	if msg == "" {
		return ""
	}
	lines := strings.Split(msg, "\n")
	return ": " + strings.TrimSpace(lines[len(lines)-1])
}

func (p *ffmpegPipe) close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.stdout != nil {
			p.stdout.Close()
		}
		if p.cmd != nil && p.cmd.Process != nil {
			err = p.cmd.Process.Kill()
			p.cmd.Wait()
		}
	})
	return err
}

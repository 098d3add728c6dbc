package capture

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type DeviceState int

const (
	DeviceUnavailable DeviceState = iota
	DeviceNoFrames
	DeviceAvailable
)

// DeviceInfo is the outcome of probing one camera index.
type DeviceInfo struct {
	Index int
	State DeviceState
	Size  image.Point
	Err   error
}

func (d DeviceInfo) String() string {
	switch d.State {
	case DeviceAvailable:
		return fmt.Sprintf("camera %d: available, resolution: %dx%d", d.Index, d.Size.X, d.Size.Y)
	case DeviceNoFrames:
		return fmt.Sprintf("camera %d: opens but can't read frames", d.Index)
	default:
		return fmt.Sprintf("camera %d: not available", d.Index)
	}
}

// Enumerate probes indices 0..count-1 one after another. A device counts as
// available when it opens and yields at least one frame. Every probed source
// is closed before the next index is tried.
func Enumerate(open Opener, count int, logger *zap.SugaredLogger) []DeviceInfo {
	infos := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		info := probeOne(open, i)
		if logger != nil {
			logger.Info(info.String())
			if info.Err != nil {
				logger.Debugw("probe failed", "index", i, "error", info.Err)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func probeOne(open Opener, index int) (info DeviceInfo) {
	info.Index = index
	src := open(index)
	defer func() {
		info.Err = multierr.Append(info.Err, src.Close())
	}()

	if err := src.Open(); err != nil {
		info.Err = err
		if errors.Is(err, ErrNoFrame) {
			info.State = DeviceNoFrames
		}
		return info
	}

	img, err := src.Read()
	if err != nil || img == nil {
		info.State = DeviceNoFrames
		info.Err = err
		return info
	}
	info.State = DeviceAvailable
	info.Size = img.Bounds().Size()
	return info
}

// AvailableIndices filters infos down to usable camera indices.
func AvailableIndices(infos []DeviceInfo) []int {
	var out []int
	for _, info := range infos {
		if info.State == DeviceAvailable {
			out = append(out, info.Index)
		}
	}
	return out
}

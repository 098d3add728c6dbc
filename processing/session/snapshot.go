package session

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const snapshotQuality = 95

// SnapshotWriter saves displayed frames as capture_{frame}.jpg.
type SnapshotWriter struct {
	dir string
}

func NewSnapshotWriter(dir string) *SnapshotWriter {
	if dir == "" {
		dir = "."
	}
	return &SnapshotWriter{dir: dir}
}

func (w *SnapshotWriter) Path(frameCount uint64) string {
	return filepath.Join(w.dir, fmt.Sprintf("capture_%d.jpg", frameCount))
}

func (w *SnapshotWriter) Save(frame image.Image, frameCount uint64) (string, error) {
	path := w.Path(frameCount)
	if err := imaging.Save(frame, path, imaging.JPEGQuality(snapshotQuality)); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSnapshotWrite, path, err)
	}
	return path, nil
}

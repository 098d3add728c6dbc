package detector

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"livedetect/internal/models"
)

// AnchorCount is the number of predictions YOLOv8 emits for a square input
// of the given size (strides 8, 16 and 32).
func AnchorCount(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		g := inputSize / stride
		n += g * g
	}
	return n
}

// Preprocess resizes frame to size x size and writes it into dst as planar
// RGB scaled to [0,1]. dst must hold 3*size*size values.
func Preprocess(frame image.Image, size int, dst []float32) error {
	channelSize := size * size
	if len(dst) != 3*channelSize {
		return fmt.Errorf("input buffer has %d values, want %d", len(dst), 3*channelSize)
	}
	resized := imaging.Resize(frame, size, size, imaging.Linear)

	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		offset := y * size
		for x := 0; x < size; x++ {
			p := row[x*4:]
			i := offset + x
			dst[i] = float32(p[0]) / 255.0
			dst[channelSize+i] = float32(p[1]) / 255.0
			dst[channelSize*2+i] = float32(p[2]) / 255.0
		}
	}
	return nil
}

// DecodeYOLOv8 turns a raw [1, 4+numClasses, anchors] output tensor into
// detections in frame coordinates. Boxes are (cx, cy, w, h) in model input
// pixels; they are scaled to frame and clamped to it.
func DecodeYOLOv8(out []float32, numClasses, inputSize int, frame image.Point, confThreshold float64) ([]models.Detection, error) {
	anchors := AnchorCount(inputSize)
	if want := (4 + numClasses) * anchors; len(out) != want {
		return nil, fmt.Errorf("unexpected predictions length: got %d, want %d", len(out), want)
	}

	scaleX := float32(frame.X) / float32(inputSize)
	scaleY := float32(frame.Y) / float32(inputSize)
	threshold := float32(confThreshold)

	dets := make([]models.Detection, 0, 32)
	for i := 0; i < anchors; i++ {
		classID, score := -1, float32(0)
		for c := 0; c < numClasses; c++ {
			if s := out[(4+c)*anchors+i]; s > score {
				classID, score = c, s
			}
		}
		if classID < 0 || score < threshold {
			continue
		}

		cx, cy := out[i], out[anchors+i]
		w, h := out[2*anchors+i], out[3*anchors+i]
		box := models.Box{
			X1: clampInt(int((cx-w/2)*scaleX), 0, frame.X),
			Y1: clampInt(int((cy-h/2)*scaleY), 0, frame.Y),
			X2: clampInt(int((cx+w/2)*scaleX), 0, frame.X),
			Y2: clampInt(int((cy+h/2)*scaleY), 0, frame.Y),
		}
		if !box.Valid() {
			continue
		}
		if score > 1 {
			score = 1
		}
		dets = append(dets, models.Detection{Box: box, ClassID: classID, Confidence: score})
	}
	return dets, nil
}

// NonMaxSuppression keeps the highest-confidence box of every group of
// same-class boxes overlapping by more than iouThreshold. The result is
// ordered by descending confidence.
func NonMaxSuppression(dets []models.Detection, iouThreshold float64) []models.Detection {
	sorted := make([]models.Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]models.Detection, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].ClassID != sorted[i].ClassID {
				continue
			}
			if IoU(sorted[i].Box, sorted[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func IoU(a, b models.Box) float64 {
	inter := a.Rect().Intersect(b.Rect())
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	union := float64(a.Width()*a.Height()+b.Width()*b.Height()) - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

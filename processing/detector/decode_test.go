package detector

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livedetect/internal/models"
)

const (
	testInput   = 64
	testClasses = 3
)

// fakeOutput builds a YOLOv8-shaped tensor with the given anchors filled in.
func fakeOutput(preds map[int][]float32) []float32 {
	anchors := AnchorCount(testInput)
	out := make([]float32, (4+testClasses)*anchors)
	for i, p := range preds {
		for row, v := range p {
			out[row*anchors+i] = v
		}
	}
	return out
}

func TestAnchorCount(t *testing.T) {
	assert.Equal(t, 8400, AnchorCount(640))
	assert.Equal(t, 84, AnchorCount(64))
}

func TestDecodeYOLOv8(t *testing.T) {
	out := fakeOutput(map[int][]float32{
		// cx, cy, w, h, class scores
		0: {32, 32, 16, 16, 0.1, 0.9, 0.2},
		5: {10, 10, 8, 8, 0.3, 0.2, 0.1},
		9: {60, 60, 10, 10, 0.0, 0.0, 0.8},
	})

	dets, err := DecodeYOLOv8(out, testClasses, testInput, image.Pt(128, 64), 0.5)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, 1, dets[0].ClassID)
	assert.InDelta(t, 0.9, dets[0].Confidence, 1e-6)
	assert.Equal(t, models.Box{X1: 48, Y1: 24, X2: 80, Y2: 40}, dets[0].Box)

	// anchor 9 hangs off the input; it is clamped to the frame
	assert.Equal(t, 2, dets[1].ClassID)
	assert.Equal(t, 128, dets[1].Box.X2)
	assert.Equal(t, 64, dets[1].Box.Y2)
}

func TestDecodeYOLOv8RejectsBadShape(t *testing.T) {
	_, err := DecodeYOLOv8(make([]float32, 10), testClasses, testInput, image.Pt(64, 64), 0.5)
	assert.Error(t, err)
}

func TestDecodeDropsDegenerateBoxes(t *testing.T) {
	out := fakeOutput(map[int][]float32{
		0: {-20, -20, 4, 4, 0.9, 0, 0},
	})
	dets, err := DecodeYOLOv8(out, testClasses, testInput, image.Pt(64, 64), 0.5)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestNonMaxSuppression(t *testing.T) {
	dets := []models.Detection{
		{Box: models.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, ClassID: 0, Confidence: 0.6},
		{Box: models.Box{X1: 1, Y1: 1, X2: 11, Y2: 11}, ClassID: 0, Confidence: 0.9},
		{Box: models.Box{X1: 1, Y1: 1, X2: 11, Y2: 11}, ClassID: 1, Confidence: 0.7},
		{Box: models.Box{X1: 50, Y1: 50, X2: 60, Y2: 60}, ClassID: 0, Confidence: 0.5},
	}
	kept := NonMaxSuppression(dets, 0.45)
	require.Len(t, kept, 3)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-6)
	assert.Equal(t, 1, kept[1].ClassID)
	assert.Equal(t, 50, kept[2].Box.X1)

	// input order is untouched
	assert.InDelta(t, 0.6, dets[0].Confidence, 1e-6)
}

func TestIoU(t *testing.T) {
	a := models.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
	assert.InDelta(t, 1.0, IoU(a, a), 1e-9)
	assert.InDelta(t, 0.0, IoU(a, models.Box{X1: 20, Y1: 20, X2: 30, Y2: 30}), 1e-9)
	assert.InDelta(t, 25.0/175.0, IoU(a, models.Box{X1: 5, Y1: 5, X2: 15, Y2: 15}), 1e-9)
}

func TestPreprocess(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 0, 51, 255}}, image.Point{}, draw.Src)
	before := append([]uint8(nil), img.Pix...)

	buf := make([]float32, 3*8*8)
	require.NoError(t, Preprocess(img, 8, buf))
	assert.InDelta(t, 1.0, buf[0], 1e-6)
	assert.InDelta(t, 0.0, buf[64], 1e-6)
	assert.InDelta(t, 0.2, buf[128], 1e-6)
	assert.Equal(t, before, img.Pix)

	assert.Error(t, Preprocess(img, 8, make([]float32, 10)))
}

func TestFuncAdapter(t *testing.T) {
	var got float64
	var d Detector = Func(func(_ image.Image, conf float64) (*models.Result, error) {
		got = conf
		return models.NewResult(image.Pt(1, 1), nil), nil
	})
	res, err := d.Detect(image.NewRGBA(image.Rect(0, 0, 1, 1)), 0.25)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0.25, got)
}

// Package overlay draws detection boxes, labels and the diagnostic HUD onto
// frames. Drawing always happens on a copy; input frames are never modified.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"livedetect/internal/models"
)

const (
	boxThickness  = 2
	labelFontSize = 14
	labelPad      = 3
	hudFontSize   = 20
	hudX          = 10
	hudY          = 30
)

var (
	textColor = color.RGBA{255, 255, 255, 255}
	hudColor  = color.RGBA{0, 255, 0, 255}
	hudShadow = color.RGBA{0, 0, 0, 200}
)

type Renderer struct {
	palette *Palette
	labels  models.Labels

	labelFace font.Face
	hudFace   font.Face
}

func NewRenderer(palette *Palette, labels models.Labels) (*Renderer, error) {
	if palette == nil {
		return nil, errors.New("overlay renderer requires a palette")
	}
	if labels == nil {
		labels = models.DefaultLabels()
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parse overlay font")
	}
	return &Renderer{
		palette:   palette,
		labels:    labels,
		labelFace: truetype.NewFace(f, &truetype.Options{Size: labelFontSize}),
		hudFace:   truetype.NewFace(f, &truetype.Options{Size: hudFontSize}),
	}, nil
}

func (r *Renderer) Palette() *Palette { return r.palette }

// LabelText is the caption drawn above a detection box.
func (r *Renderer) LabelText(d models.Detection) string {
	return fmt.Sprintf("%s %.2f", r.labels.Name(d.ClassID), d.Confidence)
}

// Render returns frame annotated with res. A nil or empty result returns
// frame itself.
func (r *Renderer) Render(frame image.Image, res *models.Result) image.Image {
	if frame == nil || res.Len() == 0 {
		return frame
	}

	dc := gg.NewContextForImage(frame)
	dc.SetFontFace(r.labelFace)
	bounds := frame.Bounds()

	for _, d := range res.Detections {
		col := r.palette.Color(d.ClassID)
		box := d.Box.Rect().Sub(bounds.Min)
		drawBox(dc, box, col)
		r.drawLabel(dc, box, r.LabelText(d), col)
	}
	return dc.Image()
}

// drawBox fills a border of boxThickness pixels just inside box.
func drawBox(dc *gg.Context, box image.Rectangle, col color.Color) {
	x, y := float64(box.Min.X), float64(box.Min.Y)
	w, h := float64(box.Dx()), float64(box.Dy())
	t := float64(boxThickness)
	if w < 2*t || h < 2*t {
		dc.DrawRectangle(x, y, w, h)
		dc.SetColor(col)
		dc.Fill()
		return
	}
	dc.SetColor(col)
	dc.DrawRectangle(x, y, w, t)
	dc.DrawRectangle(x, y+h-t, w, t)
	dc.DrawRectangle(x, y, t, h)
	dc.DrawRectangle(x+w-t, y, t, h)
	dc.Fill()
}

// drawLabel puts the caption on a filled background sitting on top of the
// box. When that would leave the frame, the background is clamped to the
// frame: it moves inside the box below its top edge, and shifts left if it
// would run past the right edge.
func (r *Renderer) drawLabel(dc *gg.Context, box image.Rectangle, text string, col color.Color) {
	tw, th := dc.MeasureString(text)
	lw := tw + 2*labelPad
	lh := th + 2*labelPad

	left := float64(box.Min.X)
	top := float64(box.Min.Y) - lh
	if top < 0 {
		top = float64(box.Min.Y)
		if top < 0 {
			top = 0
		}
	}
	if maxLeft := float64(dc.Width()) - lw; left > maxLeft {
		left = maxLeft
	}
	if left < 0 {
		left = 0
	}

	dc.SetColor(col)
	dc.DrawRectangle(left, top, lw, lh)
	dc.Fill()

	dc.SetColor(textColor)
	dc.DrawString(text, left+labelPad, top+labelPad+th)
}

// DrawHUD writes diagnostic lines in the top-left corner of a copy of frame.
func (r *Renderer) DrawHUD(frame image.Image, lines []string) image.Image {
	if frame == nil || len(lines) == 0 {
		return frame
	}
	dc := gg.NewContextForImage(frame)
	dc.SetFontFace(r.hudFace)
	_, lh := dc.MeasureString("Hg")
	step := lh * 1.4

	for i, line := range lines {
		y := float64(hudY) + float64(i)*step
		dc.SetColor(hudShadow)
		dc.DrawString(line, hudX+1, y+1)
		dc.SetColor(hudColor)
		dc.DrawString(line, hudX, y)
	}
	return dc.Image()
}

package overlay

import (
	"image/color"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// MinPaletteSize covers every COCO class id without wrapping.
const MinPaletteSize = 80

// Palette is a fixed list of box colors chosen pseudo-randomly once at
// construction. The same class id always maps to the same color for the
// lifetime of the palette.
type Palette struct {
	colors []color.RGBA
}

func NewPalette(seed int64, size int) *Palette {
	if size < MinPaletteSize {
		size = MinPaletteSize
	}
	rng := rand.New(rand.NewSource(seed))
	colors := make([]color.RGBA, size)
	for i := range colors {
		// keep saturation and value high enough for white label text
		c := colorful.Hsv(rng.Float64()*360, 0.55+rng.Float64()*0.45, 0.55+rng.Float64()*0.4)
		r, g, b := c.RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return &Palette{colors: colors}
}

func (p *Palette) Len() int { return len(p.colors) }

// Color maps any class id, including negative ones, onto the palette.
func (p *Palette) Color(classID int) color.RGBA {
	n := len(p.colors)
	return p.colors[((classID%n)+n)%n]
}

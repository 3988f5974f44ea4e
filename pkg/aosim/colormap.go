package aosim

import (
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// colorStop anchors a ramp color at a position in [0, 1].
type colorStop struct {
	pos float64
	col colorful.Color
}

// Colormap maps normalized intensities in [0, 1] to display colors by
// blending linearly between anchor stops.
type Colormap struct {
	name  string
	stops []colorStop
}

var (
	// ColormapGray ramps linearly from black to white.
	ColormapGray = Colormap{name: "gray", stops: []colorStop{
		{0.0, mustHex("#000000")},
		{1.0, mustHex("#ffffff")},
	}}

	// ColormapHot ramps black through red and yellow to white, the
	// classic display ramp for point sources over a dark sky.
	ColormapHot = Colormap{name: "hot", stops: []colorStop{
		{0.00, mustHex("#000000")},
		{0.36, mustHex("#ff0000")},
		{0.75, mustHex("#ffff00")},
		{1.00, mustHex("#ffffff")},
	}}

	// ColormapViridis is a perceptually uniform ramp from dark purple
	// to yellow, used for the power spectrum panels.
	ColormapViridis = Colormap{name: "viridis", stops: []colorStop{
		{0.00, mustHex("#440154")},
		{0.25, mustHex("#3b528b")},
		{0.50, mustHex("#21918c")},
		{0.75, mustHex("#5ec962")},
		{1.00, mustHex("#fde725")},
	}}
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("colormap: bad hex literal " + s)
	}
	return c
}

// Name returns the colormap name.
func (cm Colormap) Name() string { return cm.name }

// At returns the ramp color for t, clamped to [0, 1].
func (cm Colormap) At(t float64) colorful.Color {
	if t <= cm.stops[0].pos {
		return cm.stops[0].col
	}
	for i := 1; i < len(cm.stops); i++ {
		if t <= cm.stops[i].pos {
			lo, hi := cm.stops[i-1], cm.stops[i]
			span := hi.pos - lo.pos
			return lo.col.BlendRgb(hi.col, (t-lo.pos)/span)
		}
	}
	return cm.stops[len(cm.stops)-1].col
}

// RGBA returns the ramp color for t as an 8-bit RGBA value.
func (cm Colormap) RGBA(t float64) color.RGBA {
	r, g, b := cm.At(t).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Render maps a matrix through the colormap into an RGBA image, scaling
// values so [lo, hi] covers the full ramp.
func (cm Colormap) Render(m Mat, lo, hi float64) *image.RGBA {
	rows, cols := m.Rows(), m.Cols()
	data := m.DataFloat32()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	span := hi - lo
	for r := 0; r < rows; r++ {
		off := r * cols
		for c := 0; c < cols; c++ {
			t := 0.0
			if span > 0 {
				t = (float64(data[off+c]) - lo) / span
			}
			img.SetRGBA(c, r, cm.RGBA(t))
		}
	}
	return img
}

// RenderValues maps a row-major float64 grid through the colormap.
func (cm Colormap) RenderValues(vals []float64, rows, cols int, lo, hi float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	span := hi - lo
	for r := 0; r < rows; r++ {
		off := r * cols
		for c := 0; c < cols; c++ {
			t := 0.0
			if span > 0 {
				t = (vals[off+c] - lo) / span
			}
			img.SetRGBA(c, r, cm.RGBA(t))
		}
	}
	return img
}

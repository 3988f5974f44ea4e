package aosim

import "math"

// StarField is a synthetic point source on a physical coordinate grid.
// Axis holds the sample coordinates shared by both dimensions, so the
// pixel at (row, col) sits at physical position (Axis[col], Axis[row]).
type StarField struct {
	Image  Mat
	Axis   []float64
	Extent float64
}

// SynthesizeStar renders an ideal star, exp(-(x^2+y^2)), over a Size x Size
// grid spanning [-Extent, +Extent] on both axes. Values never exceed 1.0,
// so no clipping is needed.
func SynthesizeStar(p StarFieldParams) *StarField {
	n := p.Size
	axis := make([]float64, n)
	step := p.Spacing()
	for i := 0; i < n; i++ {
		axis[i] = -p.Extent + float64(i)*step
	}

	img := NewMatWithSize(n, n)
	data := img.DataFloat32()
	for r := 0; r < n; r++ {
		y2 := axis[r] * axis[r]
		off := r * n
		for c := 0; c < n; c++ {
			data[off+c] = float32(math.Exp(-(axis[c]*axis[c] + y2)))
		}
	}

	return &StarField{
		Image:  img,
		Axis:   axis,
		Extent: p.Extent,
	}
}

// Size returns the grid edge length in samples.
func (f *StarField) Size() int { return len(f.Axis) }

// Spacing returns the physical distance between adjacent grid samples.
func (f *StarField) Spacing() float64 {
	if len(f.Axis) < 2 {
		return 0
	}
	return f.Axis[1] - f.Axis[0]
}

func (f *StarField) Close() {
	f.Image.Close()
}

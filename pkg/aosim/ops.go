package aosim

import "math"

// gaussianRadius returns the kernel radius for a given sigma, matching the
// truncate-at-4-sigma convention: r = int(4*sigma + 0.5).
func gaussianRadius(sigma float64) int {
	if sigma <= 0 {
		return 0
	}
	return int(4*sigma + 0.5)
}

// NewMatFromFloat32 creates a rows x cols Mat initialized from data in
// row-major order. The slice is copied.
func NewMatFromFloat32(rows, cols int, data []float32) Mat {
	m := NewMatWithSize(rows, cols)
	copy(m.DataFloat32(), data)
	return m
}

// ClipInPlace clamps mat values to [lo, hi]. Clipping is idempotent.
func ClipInPlace(m *Mat, lo, hi float32) {
	data := m.DataFloat32()
	n := m.Rows() * m.Cols()
	for i := 0; i < n; i++ {
		if data[i] < lo {
			data[i] = lo
		} else if data[i] > hi {
			data[i] = hi
		}
	}
}

// Clip returns a copy of m clamped to the nominal [0, 1] intensity range.
func Clip(m Mat) Mat {
	out := m.Clone()
	ClipInPlace(&out, 0, 1)
	return out
}

// Add returns a + b without clipping. Shapes must match.
func Add(a, b Mat) Mat {
	out := a.Clone()
	od := out.DataFloat32()
	bd := b.DataFloat32()
	n := a.Rows() * a.Cols()
	for i := 0; i < n; i++ {
		od[i] += bd[i]
	}
	return out
}

// ApplyTurbulence adds a turbulence field to an image and clips the result
// to [0, 1].
func ApplyTurbulence(img, field Mat) Mat {
	out := Add(img, field)
	ClipInPlace(&out, 0, 1)
	return out
}

// ApplyCorrection subtracts fraction*field from a distorted frame and clips
// to [0, 1]. fraction is the share of the turbulence the corrector removes.
func ApplyCorrection(distorted, field Mat, fraction float64) Mat {
	out := distorted.Clone()
	od := out.DataFloat32()
	fd := field.DataFloat32()
	f := float32(fraction)
	n := out.Rows() * out.Cols()
	for i := 0; i < n; i++ {
		od[i] -= f * fd[i]
	}
	ClipInPlace(&out, 0, 1)
	return out
}

// GaussianBlur returns src convolved with a Gaussian of the given sigma.
// Sigma zero returns an unmodified copy.
func GaussianBlur(src Mat, sigma float64) Mat {
	if sigma < 0 {
		panic("sigma must be non-negative")
	}
	dst := NewMatWithSize(src.Rows(), src.Cols())
	gaussianBlur(src, &dst, sigma)
	return dst
}

// ApplyBlur blurs an image (typically one that already carries additive
// noise) and clips the result to [0, 1]. Blur happens before the clip so
// out-of-range noise excursions still spread into neighbouring pixels.
func ApplyBlur(img Mat, sigma float64) Mat {
	out := GaussianBlur(img, sigma)
	ClipInPlace(&out, 0, 1)
	return out
}

// RowProfile extracts the intensity profile of one row as float64 values.
func RowProfile(m Mat, row int) []float64 {
	cols := m.Cols()
	data := m.DataFloat32()
	profile := make([]float64, cols)
	off := row * cols
	for c := 0; c < cols; c++ {
		profile[c] = float64(data[off+c])
	}
	return profile
}

// Stats returns the mean and standard deviation of the mat values.
func Stats(m Mat) (mean, stddev float64) {
	return matMeanStdDev(m)
}

// MinMax returns the smallest and largest values in the mat.
func MinMax(m Mat) (lo, hi float64) {
	data := m.DataFloat32()
	lo, hi = float64(data[0]), float64(data[0])
	n := m.Rows() * m.Cols()
	for i := 1; i < n; i++ {
		v := float64(data[i])
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// BilinearSample samples a pixel value at fractional coordinates using
// bilinear interpolation. Coordinates must lie within the image.
func BilinearSample(img Mat, y, x float64) float64 {
	y0 := int(math.Floor(y))
	y1 := y0 + 1
	if y1 > img.Rows()-1 {
		y1 = img.Rows() - 1
	}
	x0 := int(math.Floor(x))
	x1 := x0 + 1
	if x1 > img.Cols()-1 {
		x1 = img.Cols() - 1
	}
	yRatio := y - float64(y0)
	xRatio := x - float64(x0)

	data := img.DataFloat32()
	width := img.Cols()
	p00 := float64(data[y0*width+x0])
	p01 := float64(data[y0*width+x1])
	p10 := float64(data[y1*width+x0])
	p11 := float64(data[y1*width+x1])
	top := p00 + xRatio*(p01-p00)
	bottom := p10 + xRatio*(p11-p10)
	return top + yRatio*(bottom-top)
}

//go:build purego || js

package aosim

import "math"

// Mat is a pure Go 2D float32 matrix.
type Mat struct {
	data []float32
	rows int
	cols int
}

func NewMatWithSize(rows, cols int) Mat {
	return Mat{
		data: make([]float32, rows*cols),
		rows: rows,
		cols: cols,
	}
}

func (m Mat) Rows() int   { return m.rows }
func (m Mat) Cols() int   { return m.cols }
func (m Mat) Empty() bool { return m.data == nil || m.rows == 0 || m.cols == 0 }

func (m Mat) Clone() Mat {
	out := NewMatWithSize(m.rows, m.cols)
	copy(out.data, m.data)
	return out
}

func (m *Mat) Close() {
	m.data = nil
	m.rows = 0
	m.cols = 0
}

// DataFloat32 returns the backing float32 slice in row-major order.
func (m Mat) DataFloat32() []float32 {
	return m.data
}

// --- backend operations ---

// reflectIndex maps an out-of-range index into [0, size) by mirroring at
// the borders with edge repetition: -1 -> 0, -2 -> 1, size -> size-1.
func reflectIndex(idx, size int) int {
	for idx < 0 || idx >= size {
		if idx < 0 {
			idx = -idx - 1
		}
		if idx >= size {
			idx = 2*size - 1 - idx
		}
	}
	return idx
}

// gaussianBlur convolves src with a Gaussian of the given sigma using a
// separated (2r+1)-tap kernel, r = int(4*sigma + 0.5), reflected borders.
func gaussianBlur(src Mat, dst *Mat, sigma float64) {
	rows, cols := src.rows, src.cols
	if dst.rows != rows || dst.cols != cols || dst.data == nil {
		*dst = NewMatWithSize(rows, cols)
	}
	r := gaussianRadius(sigma)
	if r == 0 {
		copy(dst.data, src.data)
		return
	}
	kernel := gaussianKernel1D(r, sigma)
	kLen := len(kernel)

	srcData := src.data
	temp := make([]float32, rows*cols)

	// Horizontal pass
	for row := 0; row < rows; row++ {
		rowOff := row * cols
		for c := 0; c < cols; c++ {
			var sum float32
			if c >= r && c < cols-r {
				base := rowOff + c - r
				for k := 0; k < kLen; k++ {
					sum += srcData[base+k] * kernel[k]
				}
			} else {
				for k := 0; k < kLen; k++ {
					cc := reflectIndex(c+k-r, cols)
					sum += srcData[rowOff+cc] * kernel[k]
				}
			}
			temp[rowOff+c] = sum
		}
	}

	// Vertical pass
	dstData := dst.data
	rowOffs := make([]int, kLen)
	for row := 0; row < rows; row++ {
		for k := 0; k < kLen; k++ {
			rowOffs[k] = reflectIndex(row+k-r, rows) * cols
		}
		dstOff := row * cols
		for c := 0; c < cols; c++ {
			var sum float32
			for k := 0; k < kLen; k++ {
				sum += temp[rowOffs[k]+c] * kernel[k]
			}
			dstData[dstOff+c] = sum
		}
	}
}

// gaussianKernel1D builds a normalized 1D Gaussian kernel of 2r+1 taps.
func gaussianKernel1D(r int, sigma float64) []float32 {
	size := 2*r + 1
	kernel := make([]float32, size)
	sum := 0.0
	for i := 0; i < size; i++ {
		x := float64(i - r)
		v := math.Exp(-x * x / (2 * sigma * sigma))
		kernel[i] = float32(v)
		sum += v
	}
	for i := range kernel {
		kernel[i] = float32(float64(kernel[i]) / sum)
	}
	return kernel
}

func matMeanStdDev(src Mat) (float64, float64) {
	n := src.rows * src.cols
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(src.data[i])
	}
	mean := sum / float64(n)
	var sse float64
	for i := 0; i < n; i++ {
		d := float64(src.data[i]) - mean
		sse += d * d
	}
	return mean, math.Sqrt(sse / float64(n))
}

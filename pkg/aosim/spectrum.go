package aosim

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum is a log-scaled, centre-shifted 2D power spectrum. Data is the
// row-major grid of log10(|F| + 1) values with the DC bin at the centre.
type Spectrum struct {
	Data []float64
	Rows int
	Cols int
	Min  float64
	Max  float64
}

// PowerSpectrum computes the 2D Fourier power spectrum of an image:
// magnitude of the 2D FFT, shifted so the zero-frequency bin sits at the
// centre, then compressed as log10(magnitude + 1). The +1 offset is applied
// before the logarithm so zero-magnitude bins map to zero.
func PowerSpectrum(m Mat) *Spectrum {
	rows, cols := m.Rows(), m.Cols()
	data := m.DataFloat32()

	// Row pass: real-input FFT per row, expanded to full width through
	// conjugate symmetry.
	rowFFT := fourier.NewFFT(cols)
	half := cols/2 + 1
	coeffs := make([]complex128, half)
	rowIn := make([]float64, cols)
	freq := make([]complex128, rows*cols)
	for r := 0; r < rows; r++ {
		off := r * cols
		for c := 0; c < cols; c++ {
			rowIn[c] = float64(data[off+c])
		}
		rowFFT.Coefficients(coeffs, rowIn)
		for c := 0; c < half; c++ {
			freq[off+c] = coeffs[c]
		}
		for c := half; c < cols; c++ {
			freq[off+c] = cmplx.Conj(coeffs[cols-c])
		}
	}

	// Column pass: complex FFT down each column.
	colFFT := fourier.NewCmplxFFT(rows)
	col := make([]complex128, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			col[r] = freq[r*cols+c]
		}
		colFFT.Coefficients(col, col)
		for r := 0; r < rows; r++ {
			freq[r*cols+c] = col[r]
		}
	}

	// Magnitude, shift, log compression.
	out := make([]float64, rows*cols)
	min := math.Inf(1)
	max := math.Inf(-1)
	for r := 0; r < rows; r++ {
		sr := (r + rows/2) % rows
		for c := 0; c < cols; c++ {
			sc := (c + cols/2) % cols
			v := math.Log10(cmplx.Abs(freq[r*cols+c]) + 1)
			out[sr*cols+sc] = v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}

	return &Spectrum{
		Data: out,
		Rows: rows,
		Cols: cols,
		Min:  min,
		Max:  max,
	}
}

// At returns the spectrum value at (row, col).
func (s *Spectrum) At(row, col int) float64 {
	return s.Data[row*s.Cols+col]
}

// Peak returns the location of the largest spectrum value.
func (s *Spectrum) Peak() (row, col int) {
	best := math.Inf(-1)
	for r := 0; r < s.Rows; r++ {
		off := r * s.Cols
		for c := 0; c < s.Cols; c++ {
			if s.Data[off+c] > best {
				best = s.Data[off+c]
				row, col = r, c
			}
		}
	}
	return row, col
}

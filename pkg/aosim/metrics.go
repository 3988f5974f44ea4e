package aosim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShapeMismatch is returned when a metric is asked to compare
	// images of different dimensions.
	ErrShapeMismatch = errors.New("image shapes do not match")

	// ErrWindowTooLarge is returned when an image is smaller than the
	// SSIM comparison window.
	ErrWindowTooLarge = errors.New("image smaller than comparison window")
)

// ssimWindow is the edge length of the uniform SSIM comparison window.
const ssimWindow = 7

func checkShapes(a, b Mat) error {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrShapeMismatch, a.Rows(), a.Cols(), b.Rows(), b.Cols())
	}
	return nil
}

// MSE returns the mean squared error between two images. It is symmetric,
// non-negative, and zero exactly when the images are identical.
func MSE(a, b Mat) (float64, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}
	ad := a.DataFloat32()
	bd := b.DataFloat32()
	n := a.Rows() * a.Cols()
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(ad[i]) - float64(bd[i])
		sum += d * d
	}
	return sum / float64(n), nil
}

// PSNR returns the peak signal-to-noise ratio in decibels for images with
// peak intensity 1.0: 10*log10(1/mse). Identical images yield +Inf, which
// is the defined value for the degenerate case, not an error.
func PSNR(a, b Mat) (float64, error) {
	mse, err := MSE(a, b)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(1/mse), nil
}

// SSIM returns the mean structural similarity index over uniform 7x7
// windows with the standard stabilizing constants C1 = (0.01*L)^2 and
// C2 = (0.03*L)^2 for data range L = 1.0. Only windows fully inside the
// image contribute, so SSIM(a, a) == 1 exactly.
func SSIM(a, b Mat) (float64, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}
	rows, cols := a.Rows(), a.Cols()
	if rows < ssimWindow || cols < ssimWindow {
		return 0, fmt.Errorf("%w: %dx%d image, %d window",
			ErrWindowTooLarge, rows, cols, ssimWindow)
	}

	const (
		dataRange = 1.0
		c1        = (0.01 * dataRange) * (0.01 * dataRange)
		c2        = (0.03 * dataRange) * (0.03 * dataRange)
	)

	ad := a.DataFloat32()
	bd := b.DataFloat32()

	// Summed-area tables over x, y, x^2, y^2 and xy keep the windowed
	// means O(1) per window.
	sx := newIntegral(rows, cols)
	sy := newIntegral(rows, cols)
	sxx := newIntegral(rows, cols)
	syy := newIntegral(rows, cols)
	sxy := newIntegral(rows, cols)
	for r := 0; r < rows; r++ {
		off := r * cols
		for c := 0; c < cols; c++ {
			x := float64(ad[off+c])
			y := float64(bd[off+c])
			sx.set(r, c, x)
			sy.set(r, c, y)
			sxx.set(r, c, x*x)
			syy.set(r, c, y*y)
			sxy.set(r, c, x*y)
		}
	}
	sx.accumulate()
	sy.accumulate()
	sxx.accumulate()
	syy.accumulate()
	sxy.accumulate()

	np := float64(ssimWindow * ssimWindow)
	covNorm := np / (np - 1)

	var total float64
	var windows int
	for r := 0; r+ssimWindow <= rows; r++ {
		for c := 0; c+ssimWindow <= cols; c++ {
			ux := sx.window(r, c, ssimWindow) / np
			uy := sy.window(r, c, ssimWindow) / np
			vx := covNorm * (sxx.window(r, c, ssimWindow)/np - ux*ux)
			vy := covNorm * (syy.window(r, c, ssimWindow)/np - uy*uy)
			vxy := covNorm * (sxy.window(r, c, ssimWindow)/np - ux*uy)

			a1 := 2*ux*uy + c1
			a2 := 2*vxy + c2
			b1 := ux*ux + uy*uy + c1
			b2 := vx + vy + c2
			total += (a1 * a2) / (b1 * b2)
			windows++
		}
	}
	return total / float64(windows), nil
}

// integral is a summed-area table with a zero border row and column, so
// window sums need no boundary cases.
type integral struct {
	data []float64
	cols int
}

func newIntegral(rows, cols int) *integral {
	return &integral{
		data: make([]float64, (rows+1)*(cols+1)),
		cols: cols + 1,
	}
}

func (t *integral) set(r, c int, v float64) {
	t.data[(r+1)*t.cols+c+1] = v
}

func (t *integral) accumulate() {
	rows := len(t.data) / t.cols
	for r := 1; r < rows; r++ {
		off := r * t.cols
		prev := off - t.cols
		var rowSum float64
		for c := 1; c < t.cols; c++ {
			rowSum += t.data[off+c]
			t.data[off+c] = t.data[prev+c] + rowSum
		}
	}
}

// window returns the sum over the w x w square whose top-left corner is
// (r, c).
func (t *integral) window(r, c, w int) float64 {
	r1 := r * t.cols
	r2 := (r + w) * t.cols
	return t.data[r2+c+w] - t.data[r1+c+w] - t.data[r2+c] + t.data[r1+c]
}

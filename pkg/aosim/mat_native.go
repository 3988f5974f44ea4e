//go:build !purego && !js

package aosim

import (
	"image"

	"gocv.io/x/gocv"
)

// Mat wraps gocv.Mat (CV_32F) for the native OpenCV backend.
type Mat struct {
	m gocv.Mat
}

func NewMatWithSize(rows, cols int) Mat {
	return Mat{m: gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV32F)}
}

func (mat Mat) Rows() int   { return mat.m.Rows() }
func (mat Mat) Cols() int   { return mat.m.Cols() }
func (mat Mat) Empty() bool { return mat.m.Empty() }
func (mat Mat) Clone() Mat  { return Mat{m: mat.m.Clone()} }
func (mat *Mat) Close()     { mat.m.Close() }

func (mat Mat) DataFloat32() []float32 {
	data, _ := mat.m.DataPtrFloat32()
	return data
}

// --- backend operations ---

// gaussianBlur convolves src with a Gaussian of the given sigma using a
// (2r+1)x(2r+1) kernel, r = int(4*sigma + 0.5), reflected borders.
func gaussianBlur(src Mat, dst *Mat, sigma float64) {
	r := gaussianRadius(sigma)
	k := 2*r + 1
	gocv.GaussianBlur(src.m, &dst.m, image.Pt(k, k), sigma, sigma, gocv.BorderReflect)
}

func matMeanStdDev(src Mat) (float64, float64) {
	meanMat := gocv.NewMat()
	defer meanMat.Close()
	stdMat := gocv.NewMat()
	defer stdMat.Close()
	gocv.MeanStdDev(src.m, &meanMat, &stdMat)
	return meanMat.GetDoubleAt(0, 0), stdMat.GetDoubleAt(0, 0)
}

package aosim

import "math"

// Laplacian-difference weights for noise estimation.
var noiseWeights = [9]float32{
	1, -2, 1,
	-2, 4, -2,
	1, -2, 1,
}

// EstimateNoise estimates the sigma of additive Gaussian noise on an image.
// From J. Immerkær, "Fast Noise Variance Estimation", Computer Vision and
// Image Understanding, Vol. 64, No. 2, pp. 300-302, Sep. 1996.
func EstimateNoise(m Mat) float64 {
	rows, cols := m.Rows(), m.Cols()
	if rows < 3 || cols < 3 {
		return 0
	}
	data := m.DataFloat32()
	offsets := [9]int{
		-cols - 1, -cols, -cols + 1,
		-1, 0, 1,
		cols - 1, cols, cols + 1,
	}

	sum := 0.0
	for r := 1; r < rows-1; r++ {
		rowSum := 0.0
		for c := 1; c < cols-1; c++ {
			i := r*cols + c
			conv := float32(0)
			for j, o := range offsets {
				conv += data[i+o] * noiseWeights[j]
			}
			rowSum += math.Abs(float64(conv))
		}
		sum += rowSum
	}
	factor := math.Sqrt(0.5*math.Pi) / (6 * float64(cols-2) * float64(rows-2))
	return sum * factor
}

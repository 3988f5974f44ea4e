package aosim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator produces turbulence fields from a seedable random source.
// All draws come from the one source, so a fixed seed yields bit-identical
// fields across runs.
type Generator struct {
	params TurbulenceParams
	rng    *rand.Rand
	normal distuv.Normal
}

// NewGenerator creates a Generator over the given source. A nil src falls
// back to an unseeded PCG stream.
func NewGenerator(p TurbulenceParams, src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{
		params: p,
		rng:    rand.New(src),
		normal: distuv.Normal{
			Mu:    0,
			Sigma: p.Strength,
			Src:   src,
		},
	}
}

// NewSeededGenerator creates a Generator over a PCG stream seeded with the
// given value.
func NewSeededGenerator(p TurbulenceParams, seed uint64) *Generator {
	return NewGenerator(p, rand.NewPCG(seed, seed))
}

// Params returns the generator's turbulence parameters.
func (g *Generator) Params() TurbulenceParams { return g.params }

// Noise returns a rows x cols field of i.i.d. N(0, Strength^2) draws.
// Zero strength yields an all-zero field.
func (g *Generator) Noise(rows, cols int) Mat {
	m := NewMatWithSize(rows, cols)
	if g.params.Strength == 0 {
		return m
	}
	data := m.DataFloat32()
	n := rows * cols
	for i := 0; i < n; i++ {
		data[i] = float32(g.normal.Rand())
	}
	return m
}

// Field returns a composite turbulence field over the star grid: Gaussian
// noise plus LowFreqTerms sinusoidal layers evaluated on the physical
// coordinates,
//
//	amp * sin(freq*x + phase1) * sin(freq*y + phase2)
//
// with fresh uniform phases in [0, 1) per layer.
func (g *Generator) Field(f *StarField) Mat {
	n := f.Size()
	m := g.Noise(n, n)
	if g.params.LowFreqTerms <= 0 || g.params.LowFreqAmplitude == 0 {
		return m
	}

	data := m.DataFloat32()
	amp := g.params.LowFreqAmplitude
	freq := g.params.LowFreqFrequency
	sinX := make([]float64, n)
	sinY := make([]float64, n)

	for term := 0; term < g.params.LowFreqTerms; term++ {
		phaseX := g.rng.Float64()
		phaseY := g.rng.Float64()
		for i, v := range f.Axis {
			sinX[i] = math.Sin(freq*v + phaseX)
			sinY[i] = math.Sin(freq*v + phaseY)
		}
		for r := 0; r < n; r++ {
			off := r * n
			ay := amp * sinY[r]
			for c := 0; c < n; c++ {
				data[off+c] += float32(ay * sinX[c])
			}
		}
	}
	return m
}

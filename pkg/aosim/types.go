package aosim

import (
	"fmt"
	"math"
)

// StarFieldParams describes the synthetic star grid: Size samples per axis
// over the square physical domain [-Extent, +Extent].
type StarFieldParams struct {
	Size   int
	Extent float64
}

// NewStarFieldParams creates StarFieldParams with default values.
func NewStarFieldParams() StarFieldParams {
	return StarFieldParams{
		Size:   256,
		Extent: 5.0,
	}
}

// Spacing returns the physical distance between adjacent grid samples.
func (p StarFieldParams) Spacing() float64 {
	if p.Size < 2 {
		return 0
	}
	return 2 * p.Extent / float64(p.Size-1)
}

// TurbulenceParams controls the composite turbulence field: per-pixel
// Gaussian noise plus a number of low-frequency sinusoidal layers.
type TurbulenceParams struct {
	Strength         float64
	LowFreqTerms     int
	LowFreqAmplitude float64
	LowFreqFrequency float64
}

// NewTurbulenceParams creates TurbulenceParams with default values.
func NewTurbulenceParams() TurbulenceParams {
	return TurbulenceParams{
		Strength:         0.3,
		LowFreqTerms:     10,
		LowFreqAmplitude: 0.1,
		LowFreqFrequency: 0.5,
	}
}

// StarSimulationParams configures a full star pipeline run.
type StarSimulationParams struct {
	Field              StarFieldParams
	Turbulence         TurbulenceParams
	CorrectionFraction float64
	Seed               uint64
}

// NewStarSimulationParams creates StarSimulationParams with default values.
func NewStarSimulationParams() StarSimulationParams {
	return StarSimulationParams{
		Field:              NewStarFieldParams(),
		Turbulence:         NewTurbulenceParams(),
		CorrectionFraction: 0.7,
	}
}

// ObservationParams configures an observation pipeline run on a real image.
type ObservationParams struct {
	Path       string
	Turbulence TurbulenceParams
	BlurSigma  float64
	Seed       uint64
	Debayer    bool
}

// NewObservationParams creates ObservationParams with default values.
// The turbulence defaults carry no low-frequency layers: a loaded image
// has no physical coordinate grid to evaluate them on.
func NewObservationParams(path string) ObservationParams {
	return ObservationParams{
		Path: path,
		Turbulence: TurbulenceParams{
			Strength: 0.3,
		},
		BlurSigma: 1.0,
	}
}

// Metric is one named scalar in a pipeline report. Reports are ordered
// slices so output order is stable across runs.
type Metric struct {
	Name  string
	Value float64
}

func (m Metric) String() string {
	return fmt.Sprintf("%s=%g", m.Name, m.Value)
}

// ProfileSet holds the centre-row intensity profiles of the three star
// pipeline frames.
type ProfileSet struct {
	Row       int
	Ideal     []float64
	Distorted []float64
	Corrected []float64
}

// PSFFit is the result of fitting an elliptical Gaussian to a star image.
// Sigma and FWHM values are in physical grid units.
type PSFFit struct {
	Peak         float64
	Background   float64
	OffsetX      float64
	OffsetY      float64
	SigmaX       float64
	SigmaY       float64
	ThetaRadians float64
	FWHMX        float64
	FWHMY        float64
	FWHM         float64
	Eccentricity float64
	RSquared     float64
}

func newPSFFit(peak, background, offsetX, offsetY, sigX, sigY, theta, rSquared, spacing float64) *PSFFit {
	fwhmX := sigX * sigmaToFWHM * spacing
	fwhmY := sigY * sigmaToFWHM * spacing
	a := math.Max(fwhmX, fwhmY)
	b := math.Min(fwhmX, fwhmY)
	ecc := 0.0
	if a > 0 {
		ecc = math.Sqrt(1 - b*b/(a*a))
	}
	return &PSFFit{
		Peak:         peak,
		Background:   background,
		OffsetX:      offsetX * spacing,
		OffsetY:      offsetY * spacing,
		SigmaX:       sigX * spacing,
		SigmaY:       sigY * spacing,
		ThetaRadians: theta,
		FWHMX:        fwhmX,
		FWHMY:        fwhmY,
		FWHM:         math.Sqrt(fwhmX * fwhmY),
		Eccentricity: ecc,
		RSquared:     rSquared,
	}
}

func (p *PSFFit) String() string {
	return fmt.Sprintf("{Peak=%f, Background=%f, FWHMx=%f, FWHMy=%f, FWHM=%f, Eccentricity=%f, RSquared=%f}",
		p.Peak, p.Background, p.FWHMX, p.FWHMY, p.FWHM, p.Eccentricity, p.RSquared)
}

// StarResult is the output of the star simulation pipeline. Call Close
// to release the image buffers.
type StarResult struct {
	Ideal     Mat
	Field     Mat
	Distorted Mat
	Corrected Mat

	PSNRDistorted float64
	PSNRCorrected float64
	SSIMDistorted float64
	SSIMCorrected float64

	Profiles          ProfileSet
	SpectrumIdeal     *Spectrum
	SpectrumDistorted *Spectrum

	FitIdeal        *PSFFit
	FitCorrected    *PSFFit
	StrehlDistorted float64
	StrehlCorrected float64
	ResidualNoise   float64

	Metrics []Metric
	Seed    uint64
	Extent  float64
}

func (r *StarResult) Close() {
	r.Ideal.Close()
	r.Field.Close()
	r.Distorted.Close()
	r.Corrected.Close()
}

// ObservationResult is the output of the observation pipeline. Call Close
// to release the image buffers.
type ObservationResult struct {
	Original Mat
	Degraded Mat
	Info     *ImageInfo

	MSE        float64
	PSNR       float64
	NoiseSigma float64

	Metrics []Metric
	Seed    uint64
}

func (r *ObservationResult) Close() {
	r.Original.Close()
	r.Degraded.Close()
}

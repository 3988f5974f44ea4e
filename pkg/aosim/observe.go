package aosim

import (
	"context"
	"fmt"
)

// RunObservation runs the observation pipeline: load a real image,
// degrade it with seeded per-pixel noise and Gaussian blur, and compute
// the quality metrics against the original. ctx may be nil; a cancelled
// context aborts between stages.
func RunObservation(ctx context.Context, p ObservationParams) (*ObservationResult, error) {
	original, info, err := LoadImage(p.Path, LoadOptions{Debayer: p.Debayer})
	if err != nil {
		return nil, err
	}
	return RunObservationImage(ctx, original, info, p)
}

// RunObservationImage runs the observation pipeline on an already loaded
// frame. It takes ownership of original; the result's Close releases it.
// info may be nil.
func RunObservationImage(ctx context.Context, original Mat, info *ImageInfo, p ObservationParams) (*ObservationResult, error) {
	if p.BlurSigma < 0 {
		original.Close()
		return nil, fmt.Errorf("blur sigma must be non-negative, got %g", p.BlurSigma)
	}
	if err := cancelled(ctx); err != nil {
		original.Close()
		return nil, err
	}

	// Stage 1: additive noise, then blur, then the final clip. The blur
	// runs on the unclipped sum so out-of-range noise excursions still
	// scatter into neighbouring pixels.
	seed := resolveSeed(p.Seed)
	gen := NewSeededGenerator(p.Turbulence, seed)
	noise := gen.Noise(original.Rows(), original.Cols())
	noisy := Add(original, noise)
	noise.Close()
	degraded := ApplyBlur(noisy, p.BlurSigma)
	noisy.Close()
	if err := cancelled(ctx); err != nil {
		degraded.Close()
		original.Close()
		return nil, err
	}

	// Stage 2: quality metrics.
	res := &ObservationResult{
		Original: original,
		Degraded: degraded,
		Info:     info,
		Seed:     seed,
	}
	var err error
	if res.MSE, err = MSE(original, degraded); err == nil {
		res.PSNR, err = PSNR(original, degraded)
	}
	if err != nil {
		res.Close()
		return nil, err
	}
	res.NoiseSigma = EstimateNoise(degraded)
	res.Metrics = []Metric{
		{Name: "MSE", Value: res.MSE},
		{Name: "PSNR", Value: res.PSNR},
	}

	return res, nil
}

package aosim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

/* Example config file ...

star:
  resolution: 256
  extent: 5.0
  strength: 0.3
  terms: 10
  amplitude: 0.1
  frequency: 0.5
  correction: 0.7

observe:
  image: moon.jpg
  strength: 0.3
  blur: 1.0
  debayer: false

seed: 12345
plot: figure.png

*/

// StarConfig holds the star simulation settings.
type StarConfig struct {
	Resolution int
	Extent     float64
	Strength   float64
	Terms      int
	Amplitude  float64
	Frequency  float64
	Correction float64
}

// ObserveConfig holds the observation pipeline settings.
type ObserveConfig struct {
	Image    string
	Strength float64
	Blur     float64
	Debayer  bool
}

// Config is the top-level configuration for both pipelines. Seed zero
// means derive one from the clock at run time.
type Config struct {
	Star    StarConfig
	Observe ObserveConfig
	Seed    uint64
	Plot    string
}

// NewConfig returns a Config populated with the default settings.
func NewConfig() Config {
	field := NewStarFieldParams()
	turb := NewTurbulenceParams()
	return Config{
		Star: StarConfig{
			Resolution: field.Size,
			Extent:     field.Extent,
			Strength:   turb.Strength,
			Terms:      turb.LowFreqTerms,
			Amplitude:  turb.LowFreqAmplitude,
			Frequency:  turb.LowFreqFrequency,
			Correction: 0.7,
		},
		Observe: ObserveConfig{
			Strength: 0.3,
			Blur:     1.0,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. Keys absent from
// the file keep their default values.
func LoadConfig(filename string) (Config, error) {
	c := NewConfig()

	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("read %q: %w", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("parse %q: %w", filename, err)
	}

	return c, c.Finalize()
}

// Finalize sanity-checks the configuration. It is safe to call again after
// overriding individual fields.
func (c *Config) Finalize() error {
	if c.Star.Resolution < 2 {
		return fmt.Errorf("star resolution must be at least 2, got %d", c.Star.Resolution)
	}
	if c.Star.Extent <= 0 {
		return fmt.Errorf("star extent must be positive, got %g", c.Star.Extent)
	}
	if c.Star.Strength < 0 {
		return fmt.Errorf("turbulence strength must be non-negative, got %g", c.Star.Strength)
	}
	if c.Star.Terms < 0 {
		return fmt.Errorf("low-frequency term count must be non-negative, got %d", c.Star.Terms)
	}
	if c.Star.Correction < 0 || c.Star.Correction > 1 {
		return fmt.Errorf("correction fraction must be within [0, 1], got %g", c.Star.Correction)
	}
	if c.Observe.Strength < 0 {
		return fmt.Errorf("turbulence strength must be non-negative, got %g", c.Observe.Strength)
	}
	if c.Observe.Blur < 0 {
		return fmt.Errorf("blur sigma must be non-negative, got %g", c.Observe.Blur)
	}
	return nil
}

// StarParams converts the configuration into star simulation parameters.
func (c Config) StarParams() StarSimulationParams {
	return StarSimulationParams{
		Field: StarFieldParams{
			Size:   c.Star.Resolution,
			Extent: c.Star.Extent,
		},
		Turbulence: TurbulenceParams{
			Strength:         c.Star.Strength,
			LowFreqTerms:     c.Star.Terms,
			LowFreqAmplitude: c.Star.Amplitude,
			LowFreqFrequency: c.Star.Frequency,
		},
		CorrectionFraction: c.Star.Correction,
		Seed:               c.Seed,
	}
}

// ObservationParams converts the configuration into observation pipeline
// parameters.
func (c Config) ObservationParams() ObservationParams {
	return ObservationParams{
		Path: c.Observe.Image,
		Turbulence: TurbulenceParams{
			Strength: c.Observe.Strength,
		},
		BlurSigma: c.Observe.Blur,
		Seed:      c.Seed,
		Debayer:   c.Observe.Debayer,
	}
}

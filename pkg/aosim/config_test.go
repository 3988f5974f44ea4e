package aosim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()

	if c.Star.Resolution != 256 || c.Star.Extent != 5 {
		t.Fatalf("star grid defaults = %d, %g, want 256, 5", c.Star.Resolution, c.Star.Extent)
	}
	if c.Star.Strength != 0.3 || c.Star.Terms != 10 {
		t.Fatalf("turbulence defaults = %g, %d, want 0.3, 10", c.Star.Strength, c.Star.Terms)
	}
	if c.Star.Amplitude != 0.1 || c.Star.Frequency != 0.5 {
		t.Fatalf("layer defaults = %g, %g, want 0.1, 0.5", c.Star.Amplitude, c.Star.Frequency)
	}
	if c.Star.Correction != 0.7 {
		t.Fatalf("correction default = %g, want 0.7", c.Star.Correction)
	}
	if c.Observe.Strength != 0.3 || c.Observe.Blur != 1.0 {
		t.Fatalf("observe defaults = %g, %g, want 0.3, 1.0", c.Observe.Strength, c.Observe.Blur)
	}
	if c.Seed != 0 || c.Plot != "" {
		t.Fatalf("seed/plot defaults = %d, %q, want 0, empty", c.Seed, c.Plot)
	}
	if err := c.Finalize(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
star:
  resolution: 128
  strength: 0.5
observe:
  image: moon.png
  blur: 2.5
seed: 42
plot: out.png
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if c.Star.Resolution != 128 {
		t.Fatalf("resolution = %d, want 128", c.Star.Resolution)
	}
	if c.Star.Strength != 0.5 {
		t.Fatalf("strength = %g, want 0.5", c.Star.Strength)
	}
	// Untouched keys keep their defaults.
	if c.Star.Extent != 5 || c.Star.Correction != 0.7 {
		t.Fatalf("extent/correction = %g, %g, want defaults 5, 0.7", c.Star.Extent, c.Star.Correction)
	}
	if c.Observe.Image != "moon.png" || c.Observe.Blur != 2.5 {
		t.Fatalf("observe = %+v, want image moon.png, blur 2.5", c.Observe)
	}
	if c.Observe.Strength != 0.3 {
		t.Fatalf("observe strength = %g, want default 0.3", c.Observe.Strength)
	}
	if c.Seed != 42 || c.Plot != "out.png" {
		t.Fatalf("seed/plot = %d, %q, want 42, out.png", c.Seed, c.Plot)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig on a missing file returned nil error")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "star: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig on malformed YAML returned nil error")
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	path := writeConfig(t, "star:\n  resolution: 1\n")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig accepted resolution 1")
	}
	if !strings.Contains(err.Error(), "resolution") {
		t.Fatalf("error = %v, want mention of resolution", err)
	}
}

func TestFinalizeRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"small resolution", func(c *Config) { c.Star.Resolution = 1 }},
		{"zero extent", func(c *Config) { c.Star.Extent = 0 }},
		{"negative extent", func(c *Config) { c.Star.Extent = -3 }},
		{"negative strength", func(c *Config) { c.Star.Strength = -0.1 }},
		{"negative terms", func(c *Config) { c.Star.Terms = -1 }},
		{"correction above one", func(c *Config) { c.Star.Correction = 1.5 }},
		{"negative correction", func(c *Config) { c.Star.Correction = -0.2 }},
		{"negative observe strength", func(c *Config) { c.Observe.Strength = -1 }},
		{"negative blur", func(c *Config) { c.Observe.Blur = -0.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConfig()
			tc.mutate(&c)
			if err := c.Finalize(); err == nil {
				t.Fatal("Finalize accepted invalid config")
			}
		})
	}
}

func TestConfigStarParams(t *testing.T) {
	c := NewConfig()
	c.Star.Resolution = 64
	c.Star.Strength = 0.2
	c.Seed = 9

	p := c.StarParams()
	if p.Field.Size != 64 || p.Field.Extent != 5 {
		t.Fatalf("field params = %+v, want size 64, extent 5", p.Field)
	}
	if p.Turbulence.Strength != 0.2 || p.Turbulence.LowFreqTerms != 10 {
		t.Fatalf("turbulence params = %+v, want strength 0.2, terms 10", p.Turbulence)
	}
	if p.CorrectionFraction != 0.7 || p.Seed != 9 {
		t.Fatalf("correction/seed = %g, %d, want 0.7, 9", p.CorrectionFraction, p.Seed)
	}
}

func TestConfigObservationParams(t *testing.T) {
	c := NewConfig()
	c.Observe.Image = "jupiter.fits"
	c.Observe.Debayer = true
	c.Seed = 4

	p := c.ObservationParams()
	if p.Path != "jupiter.fits" {
		t.Fatalf("path = %q, want jupiter.fits", p.Path)
	}
	if p.Turbulence.Strength != 0.3 || p.Turbulence.LowFreqTerms != 0 {
		t.Fatalf("turbulence params = %+v, want strength 0.3, no layers", p.Turbulence)
	}
	if p.BlurSigma != 1.0 || !p.Debayer || p.Seed != 4 {
		t.Fatalf("blur/debayer/seed = %g, %v, %d, want 1.0, true, 4", p.BlurSigma, p.Debayer, p.Seed)
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

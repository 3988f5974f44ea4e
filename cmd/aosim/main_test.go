package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestStarCommandReportsMetrics(t *testing.T) {
	root := testRoot(t)
	root.SetArgs([]string{"star", "--resolution", "64", "--seed", "5"})

	var runErr error
	output := captureOutput(t, func() {
		runErr = root.Execute()
	})
	if runErr != nil {
		t.Fatalf("star command failed: %v", runErr)
	}

	for _, want := range []string{
		"Star Simulation Results",
		"64 x 64",
		"PSNR (Blurred):",
		"PSNR (AO Corrected):",
		"SSIM (Blurred):",
		"SSIM (AO Corrected):",
		"Strehl (corrected):",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in star output, got:\n%s", want, output)
		}
	}
}

func TestStarCommandWritesFigure(t *testing.T) {
	plotPath := filepath.Join(t.TempDir(), "star.png")
	root := testRoot(t)
	root.SetArgs([]string{"star", "--resolution", "64", "--seed", "5", "--plot", plotPath})

	var runErr error
	captureOutput(t, func() {
		runErr = root.Execute()
	})
	if runErr != nil {
		t.Fatalf("star command failed: %v", runErr)
	}
	if _, err := os.Stat(plotPath); err != nil {
		t.Fatalf("expected figure at %s: %v", plotPath, err)
	}
}

func TestObserveCommandReportsMetrics(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "moon.png")
	writeGrayPNG(t, imgPath)

	root := testRoot(t)
	root.SetArgs([]string{"observe", imgPath, "--seed", "7", "--strength", "0.1"})

	var runErr error
	output := captureOutput(t, func() {
		runErr = root.Execute()
	})
	if runErr != nil {
		t.Fatalf("observe command failed: %v", runErr)
	}

	for _, want := range []string{
		"Loading: " + imgPath,
		"16 x 16, png",
		"MSE:",
		"PSNR:",
		"dB",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in observe output, got:\n%s", want, output)
		}
	}
}

func TestObserveCommandRequiresArgument(t *testing.T) {
	root := testRoot(t)
	root.SetArgs([]string{"observe"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for observe without an input image")
	}
}

func TestObserveCommandMissingImage(t *testing.T) {
	root := testRoot(t)
	root.SetArgs([]string{"observe", filepath.Join(t.TempDir(), "absent.png")})

	var runErr error
	captureOutput(t, func() {
		runErr = root.Execute()
	})
	if runErr == nil {
		t.Fatalf("expected error for missing input image")
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "aosim.yaml")
	contents := "star:\n  resolution: 48\nseed: 3\n"
	if err := os.WriteFile(cfgPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	root := testRoot(t)
	root.SetArgs([]string{"star", "--config", cfgPath})
	var runErr error
	output := captureOutput(t, func() {
		runErr = root.Execute()
	})
	if runErr != nil {
		t.Fatalf("star with config failed: %v", runErr)
	}
	if !strings.Contains(output, "48 x 48") {
		t.Fatalf("expected config resolution 48 in output, got:\n%s", output)
	}

	root = testRoot(t)
	root.SetArgs([]string{"star", "--config", cfgPath, "--resolution", "64"})
	output = captureOutput(t, func() {
		runErr = root.Execute()
	})
	if runErr != nil {
		t.Fatalf("star with flag override failed: %v", runErr)
	}
	if !strings.Contains(output, "64 x 64") {
		t.Fatalf("expected flag to override config resolution, got:\n%s", output)
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	root := testRoot(t)
	root.SetArgs([]string{"star", "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "absent.yaml") {
		t.Fatalf("expected config path in error, got %v", err)
	}
}

func TestInvalidFlagValueRejected(t *testing.T) {
	root := testRoot(t)
	root.SetArgs([]string{"star", "--resolution", "1"})
	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for resolution below the minimum")
	}
	if !strings.Contains(err.Error(), "resolution") {
		t.Fatalf("expected resolution mentioned in error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	root := testRoot(t)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(buf.String(), "aosim v1.0.0") {
		t.Fatalf("expected version string, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// Test helpers

func testRoot(t *testing.T) *cobra.Command {
	t.Helper()
	t.Setenv("AOSIM_CONFIG", "")
	return newRootCmd()
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeGrayPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(16*y + x)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
}

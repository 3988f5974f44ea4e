package aosim

import (
	"math"
	"testing"
)

func TestPowerSpectrumConstant(t *testing.T) {
	// A constant image concentrates all power in the DC bin, which the
	// shift moves to the centre of the grid.
	const n = 16
	m := constantMat(n, n, 0.5)
	defer m.Close()

	s := PowerSpectrum(m)
	if s.Rows != n || s.Cols != n {
		t.Fatalf("spectrum dims = %dx%d, want %dx%d", s.Rows, s.Cols, n, n)
	}

	pr, pc := s.Peak()
	if pr != n/2 || pc != n/2 {
		t.Fatalf("peak at (%d, %d), want (%d, %d)", pr, pc, n/2, n/2)
	}

	// |F(0,0)| = n*n*0.5 = 128.
	wantPeak := math.Log10(128 + 1)
	if got := s.At(n/2, n/2); math.Abs(got-wantPeak) > 1e-9 {
		t.Fatalf("peak value = %g, want %g", got, wantPeak)
	}

	// Every other bin holds only numerical residue.
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if r == n/2 && c == n/2 {
				continue
			}
			if v := s.At(r, c); v > 1e-9 {
				t.Fatalf("off-DC bin (%d, %d) = %g, want near 0", r, c, v)
			}
		}
	}

	if s.Min < 0 {
		t.Fatalf("Min = %g, want non-negative", s.Min)
	}
	if math.Abs(s.Max-wantPeak) > 1e-9 {
		t.Fatalf("Max = %g, want %g", s.Max, wantPeak)
	}
}

func TestPowerSpectrumImpulse(t *testing.T) {
	// A unit impulse has a flat magnitude spectrum: every bin is 1.
	const n = 8
	m := NewMatWithSize(n, n)
	defer m.Close()
	m.DataFloat32()[0] = 1

	s := PowerSpectrum(m)
	want := math.Log10(2)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if got := s.At(r, c); math.Abs(got-want) > 1e-9 {
				t.Fatalf("bin (%d, %d) = %g, want %g", r, c, got, want)
			}
		}
	}
	if math.Abs(s.Min-want) > 1e-9 || math.Abs(s.Max-want) > 1e-9 {
		t.Fatalf("Min/Max = %g/%g, want both %g", s.Min, s.Max, want)
	}
}

func TestPowerSpectrumNonSquare(t *testing.T) {
	m := constantMat(8, 16, 1)
	defer m.Close()

	s := PowerSpectrum(m)
	if s.Rows != 8 || s.Cols != 16 {
		t.Fatalf("spectrum dims = %dx%d, want 8x16", s.Rows, s.Cols)
	}
	pr, pc := s.Peak()
	if pr != 4 || pc != 8 {
		t.Fatalf("peak at (%d, %d), want (4, 8)", pr, pc)
	}
	if len(s.Data) != 8*16 {
		t.Fatalf("data length = %d, want %d", len(s.Data), 8*16)
	}
}

func TestPowerSpectrumSinusoid(t *testing.T) {
	// A pure horizontal cosine at bin frequency k lights the two bins
	// offset +-k from the centre column.
	const n = 16
	const k = 3
	m := NewMatWithSize(n, n)
	defer m.Close()
	data := m.DataFloat32()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			data[r*n+c] = float32(math.Cos(2 * math.Pi * k * float64(c) / n))
		}
	}

	s := PowerSpectrum(m)
	// |F| = n*n/2 at the two active bins.
	want := math.Log10(float64(n*n)/2 + 1)
	for _, col := range []int{n/2 - k, n/2 + k} {
		if got := s.At(n/2, col); math.Abs(got-want) > 1e-6 {
			t.Fatalf("bin (%d, %d) = %g, want %g", n/2, col, got, want)
		}
	}
	// The DC bin stays dark: the cosine sums to zero over full periods.
	if got := s.At(n/2, n/2); got > 1e-4 {
		t.Fatalf("DC bin = %g, want near 0", got)
	}
}

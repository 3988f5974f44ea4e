package aosim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestReadFITS16BitWithBZero(t *testing.T) {
	// Unsigned 16-bit data stored the standard way: signed values with
	// BZERO 32768.
	logical := []uint16{0, 1000, 32768, 65535}
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "16"},
		{"NAXIS", "2"},
		{"NAXIS1", "2"},
		{"NAXIS2", "2"},
		{"BZERO", "32768"},
		{"BSCALE", "1"},
		{"OBJECT", "'M42'"},
		{"EXPTIME", "30.5"},
	}, pixels16(logical))

	frame, err := ReadFITSBytes(fits)
	if err != nil {
		t.Fatalf("ReadFITSBytes returned error: %v", err)
	}
	if frame.Width != 2 || frame.Height != 2 {
		t.Fatalf("frame dims = %dx%d, want 2x2", frame.Width, frame.Height)
	}
	if frame.BitDepth != 16 {
		t.Fatalf("BitDepth = %d, want 16", frame.BitDepth)
	}
	for i, want := range logical {
		if frame.Pixels[i] != want {
			t.Fatalf("pixel[%d] = %d, want %d", i, frame.Pixels[i], want)
		}
	}
	if got := frame.Object(); got != "M42" {
		t.Fatalf("Object() = %q, want %q", got, "M42")
	}
	exp, ok := frame.ExposureSeconds()
	if !ok || math.Abs(exp-30.5) > 1e-9 {
		t.Fatalf("ExposureSeconds() = %g, %v, want 30.5, true", exp, ok)
	}
	if got := frame.BayerPattern(); got != "" {
		t.Fatalf("BayerPattern() = %q, want empty", got)
	}
}

func TestReadFITS8Bit(t *testing.T) {
	raw := []byte{0, 64, 128, 255}
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "8"},
		{"NAXIS", "2"},
		{"NAXIS1", "2"},
		{"NAXIS2", "2"},
	}, raw)

	frame, err := ReadFITSBytes(fits)
	if err != nil {
		t.Fatalf("ReadFITSBytes returned error: %v", err)
	}
	if frame.BitDepth != 8 {
		t.Fatalf("BitDepth = %d, want 8", frame.BitDepth)
	}
	for i, want := range raw {
		if frame.Pixels[i] != uint16(want) {
			t.Fatalf("pixel[%d] = %d, want %d", i, frame.Pixels[i], want)
		}
	}
}

func TestReadFITSFloatRescales(t *testing.T) {
	// Float frames already normalized to [0, 1] spread across the 16-bit
	// range on read.
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "-32"},
		{"NAXIS", "2"},
		{"NAXIS1", "2"},
		{"NAXIS2", "2"},
	}, pixelsFloat32([]float32{0, 0.25, 0.5, 1}))

	frame, err := ReadFITSBytes(fits)
	if err != nil {
		t.Fatalf("ReadFITSBytes returned error: %v", err)
	}
	want := []uint16{0, 16383, 32767, 65535}
	for i, w := range want {
		if frame.Pixels[i] != w {
			t.Fatalf("pixel[%d] = %d, want %d", i, frame.Pixels[i], w)
		}
	}
}

func TestReadFITSFloatWideRange(t *testing.T) {
	// Floats above 1 pass through unscaled.
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "-32"},
		{"NAXIS", "2"},
		{"NAXIS1", "2"},
		{"NAXIS2", "2"},
	}, pixelsFloat32([]float32{0, 100, 2000, 40000}))

	frame, err := ReadFITSBytes(fits)
	if err != nil {
		t.Fatalf("ReadFITSBytes returned error: %v", err)
	}
	want := []uint16{0, 100, 2000, 40000}
	for i, w := range want {
		if frame.Pixels[i] != w {
			t.Fatalf("pixel[%d] = %d, want %d", i, frame.Pixels[i], w)
		}
	}
}

func TestReadFITSTruncatedData(t *testing.T) {
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "16"},
		{"NAXIS", "2"},
		{"NAXIS1", "8"},
		{"NAXIS2", "8"},
	}, nil)
	// Drop the padded data block entirely.
	fits = fits[:2880]

	if _, err := ReadFITSBytes(fits); !errors.Is(err, ErrDecode) {
		t.Fatalf("ReadFITSBytes error = %v, want ErrDecode", err)
	}
}

func TestReadFITSTruncatedHeaderPadding(t *testing.T) {
	// Cut the file inside the padding that follows END, before the header
	// block completes. The reader reports the header as truncated instead
	// of failing later on missing pixel data.
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "16"},
		{"NAXIS", "2"},
		{"NAXIS1", "2"},
		{"NAXIS2", "2"},
	}, pixels16([]uint16{1, 2, 3, 4}))
	fits = fits[:6*80]

	_, err := ReadFITSBytes(fits)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("ReadFITSBytes error = %v, want ErrDecode", err)
	}
	if !strings.Contains(err.Error(), "header") {
		t.Fatalf("error = %v, want the truncated header named", err)
	}
}

func TestReadFITSGarbage(t *testing.T) {
	if _, err := ReadFITSBytes([]byte("not a fits file")); !errors.Is(err, ErrDecode) {
		t.Fatalf("ReadFITSBytes error = %v, want ErrDecode", err)
	}
}

func TestReadFITSBadGeometry(t *testing.T) {
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "16"},
		{"NAXIS", "0"},
	}, nil)

	if _, err := ReadFITSBytes(fits); !errors.Is(err, ErrDecode) {
		t.Fatalf("ReadFITSBytes error = %v, want ErrDecode", err)
	}
}

func TestReadFITSUnsupportedBitpix(t *testing.T) {
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "64"},
		{"NAXIS", "2"},
		{"NAXIS1", "2"},
		{"NAXIS2", "2"},
	}, make([]byte, 32))

	if _, err := ReadFITSBytes(fits); !errors.Is(err, ErrDecode) {
		t.Fatalf("ReadFITSBytes error = %v, want ErrDecode", err)
	}
}

func TestReadFITSMissingFile(t *testing.T) {
	if _, err := ReadFITS("testdata/absent.fits"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadFITS error = %v, want ErrNotFound", err)
	}
}

func TestFITSHeaderLookup(t *testing.T) {
	fits := buildFITS([]fitsRecord{
		{"SIMPLE", "T"},
		{"BITPIX", "8"},
		{"NAXIS", "2"},
		{"NAXIS1", "1"},
		{"NAXIS2", "1"},
		{"EXPOSURE", "12"},
		{"BAYERPAT", "'RGGB'"},
	}, []byte{7})

	frame, err := ReadFITSBytes(fits)
	if err != nil {
		t.Fatalf("ReadFITSBytes returned error: %v", err)
	}
	// Header lookup is case-insensitive and EXPOSURE backs up EXPTIME.
	if got := frame.Header("bitpix"); got != "8" {
		t.Fatalf("Header(bitpix) = %q, want %q", got, "8")
	}
	exp, ok := frame.ExposureSeconds()
	if !ok || exp != 12 {
		t.Fatalf("ExposureSeconds() = %g, %v, want 12, true", exp, ok)
	}
	if got := frame.BayerPattern(); got != "RGGB" {
		t.Fatalf("BayerPattern() = %q, want %q", got, "RGGB")
	}
}

// fitsRecord is one keyword = value header entry for buildFITS.
type fitsRecord struct {
	Keyword string
	Value   string
}

// buildFITS assembles a minimal single-HDU FITS file: 80-byte header
// records padded to a 2880-byte block, END, then the raw pixel bytes
// padded likewise.
func buildFITS(records []fitsRecord, pixelData []byte) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		buf.WriteString(fmt.Sprintf("%-80s", fmt.Sprintf("%-8s= %20s", r.Keyword, r.Value)))
	}
	buf.WriteString(fmt.Sprintf("%-80s", "END"))
	for buf.Len()%2880 != 0 {
		buf.WriteByte(' ')
	}
	buf.Write(pixelData)
	for buf.Len()%2880 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// pixels16 encodes logical unsigned 16-bit values as BZERO-offset signed
// big-endian data.
func pixels16(logical []uint16) []byte {
	out := make([]byte, len(logical)*2)
	for i, v := range logical {
		signed := int32(v) - 32768
		binary.BigEndian.PutUint16(out[i*2:], uint16(int16(signed)))
	}
	return out
}

// pixelsFloat32 encodes float values as big-endian IEEE 754 data.
func pixelsFloat32(vals []float32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

package aosim

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// FITSImage holds one parsed FITS frame. Pixel values are quantized to
// 16 bits with BZERO/BSCALE applied; BitDepth records the effective source
// depth (8 or 16) for normalization.
type FITSImage struct {
	Pixels   []uint16
	Width    int
	Height   int
	BitDepth int
	Headers  map[string]string
}

// Header returns the raw value of a header keyword, or "" when absent.
func (f *FITSImage) Header(key string) string {
	return f.Headers[strings.ToUpper(key)]
}

func (f *FITSImage) headerFloat(key string) (float64, bool) {
	v, ok := f.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Object returns the OBJECT header, the observed target name.
func (f *FITSImage) Object() string { return f.Header("OBJECT") }

// BayerPattern returns the CFA layout from the BAYERPAT header, or ""
// for mono frames.
func (f *FITSImage) BayerPattern() string { return f.Header("BAYERPAT") }

// ExposureSeconds returns the exposure time from EXPTIME or EXPOSURE.
func (f *FITSImage) ExposureSeconds() (float64, bool) {
	if v, ok := f.headerFloat("EXPTIME"); ok {
		return v, true
	}
	return f.headerFloat("EXPOSURE")
}

// ReadFITS reads the primary HDU of a FITS file. A missing file maps to
// ErrNotFound; malformed content maps to ErrDecode.
func ReadFITS(path string) (*FITSImage, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return ReadFITSFrom(f)
}

// ReadFITSBytes parses a FITS frame held in memory.
func ReadFITSBytes(data []byte) (*FITSImage, error) {
	return ReadFITSFrom(bytes.NewReader(data))
}

// ReadFITSFrom parses a FITS frame from a reader: 80-byte header records
// in 2880-byte blocks up to END, then big-endian pixel data for BITPIX
// 8, 16, 32 or -32.
func ReadFITSFrom(r io.Reader) (*FITSImage, error) {
	var bitpix, naxis, width, height int
	bzero := 0.0
	bscale := 1.0
	headers := make(map[string]string)
	headerDone := false

	recordBuf := make([]byte, 80)
	for !headerDone {
		for i := 0; i < 36; i++ {
			if _, err := io.ReadFull(r, recordBuf); err != nil {
				return nil, fmt.Errorf("%w: truncated FITS header: %v", ErrDecode, err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if keyword == "END" {
				headerDone = true
				if remaining := 35 - i; remaining > 0 {
					if _, err := io.ReadFull(r, make([]byte, remaining*80)); err != nil {
						return nil, fmt.Errorf("%w: truncated FITS header: %v", ErrDecode, err)
					}
				}
				break
			}
			if len(record) <= 10 || record[8] != '=' || record[9] != ' ' {
				continue
			}

			rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
			if keyword != "" && rawValue != "" {
				headers[strings.ToUpper(keyword)] = unquoteHeaderValue(rawValue)
			}

			switch keyword {
			case "BITPIX":
				bitpix, _ = strconv.Atoi(rawValue)
			case "NAXIS":
				naxis, _ = strconv.Atoi(rawValue)
			case "NAXIS1":
				width, _ = strconv.Atoi(rawValue)
			case "NAXIS2":
				height, _ = strconv.Atoi(rawValue)
			case "BZERO":
				bzero, _ = strconv.ParseFloat(rawValue, 64)
			case "BSCALE":
				bscale, _ = strconv.ParseFloat(rawValue, 64)
			}
		}
	}

	if naxis < 2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid FITS geometry: NAXIS=%d, NAXIS1=%d, NAXIS2=%d",
			ErrDecode, naxis, width, height)
	}

	numPixels := width * height
	pixels := make([]uint16, numPixels)
	effectiveBpp := 16

	switch bitpix {
	case 8:
		raw := make([]byte, numPixels)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("%w: reading 8-bit pixel data: %v", ErrDecode, err)
		}
		effectiveBpp = 8
		for i := 0; i < numPixels; i++ {
			pixels[i] = uint16(clampFloat64(float64(raw[i])*bscale+bzero, 0, 255))
		}

	case 16:
		raw := make([]byte, numPixels*2)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("%w: reading 16-bit pixel data: %v", ErrDecode, err)
		}
		for i := 0; i < numPixels; i++ {
			signed := int16(binary.BigEndian.Uint16(raw[i*2:]))
			pixels[i] = uint16(clampFloat64(float64(signed)*bscale+bzero, 0, 65535))
		}

	case 32:
		raw := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("%w: reading 32-bit pixel data: %v", ErrDecode, err)
		}
		for i := 0; i < numPixels; i++ {
			signed := int32(binary.BigEndian.Uint32(raw[i*4:]))
			pixels[i] = uint16(clampFloat64(float64(signed)*bscale+bzero, 0, 65535))
		}

	case -32:
		raw := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("%w: reading float pixel data: %v", ErrDecode, err)
		}
		vals := make([]float64, numPixels)
		maxVal := 0.0
		for i := 0; i < numPixels; i++ {
			bits := binary.BigEndian.Uint32(raw[i*4:])
			vals[i] = float64(math.Float32frombits(bits))*bscale + bzero
			if vals[i] > maxVal {
				maxVal = vals[i]
			}
		}
		// Float frames normalized to [0, 1] would quantize to nothing;
		// rescale them across the 16-bit range.
		scale := 1.0
		if maxVal <= 1.0 {
			scale = 65535.0
		}
		for i := 0; i < numPixels; i++ {
			pixels[i] = uint16(clampFloat64(vals[i]*scale, 0, 65535))
		}

	default:
		return nil, fmt.Errorf("%w: unsupported BITPIX %d", ErrDecode, bitpix)
	}

	return &FITSImage{
		Pixels:   pixels,
		Width:    width,
		Height:   height,
		BitDepth: effectiveBpp,
		Headers:  headers,
	}, nil
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func unquoteHeaderValue(raw string) string {
	if !strings.HasPrefix(raw, "'") {
		return raw
	}
	if end := strings.LastIndex(raw, "'"); end > 0 {
		return strings.TrimRight(raw[1:end], " ")
	}
	return strings.Trim(raw, "' ")
}

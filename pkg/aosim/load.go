package aosim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	// ErrNotFound is returned when the input image file does not exist.
	ErrNotFound = errors.New("image file not found")

	// ErrDecode is returned when an input file cannot be decoded.
	ErrDecode = errors.New("image decode failed")
)

// LoadOptions controls image loading.
type LoadOptions struct {
	// Debayer forces CFA interpolation of raw FITS frames. Frames that
	// declare a BAYERPAT header are debayered regardless.
	Debayer bool
}

// ImageInfo describes a loaded image.
type ImageInfo struct {
	Path     string
	Format   string
	Width    int
	Height   int
	BitDepth int

	// FITS frames only.
	Object          string
	ExposureSeconds float64
}

// LoadImage loads a grayscale image normalized to [0, 1]. PNG, JPEG, TIFF
// and BMP decode through the image registry; .fits/.fit/.fts files go
// through the FITS reader. Colour input collapses to luminance.
func LoadImage(path string, opts LoadOptions) (Mat, *ImageInfo, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		return loadFITSImage(path, opts)
	}
	return loadStandardImage(path)
}

// LoadImageBytes decodes an in-memory image, sniffing FITS content by its
// mandatory SIMPLE keyword. Used by callers with no filesystem, such as
// the wasm bindings.
func LoadImageBytes(data []byte, opts LoadOptions) (Mat, *ImageInfo, error) {
	if bytes.HasPrefix(data, []byte("SIMPLE")) {
		frame, err := ReadFITSBytes(data)
		if err != nil {
			return Mat{}, nil, err
		}
		return matFromFITS(frame, opts, "")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Mat{}, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return matFromDecoded(img, format, "")
}

func loadFITSImage(path string, opts LoadOptions) (Mat, *ImageInfo, error) {
	frame, err := ReadFITS(path)
	if err != nil {
		return Mat{}, nil, err
	}
	return matFromFITS(frame, opts, path)
}

func loadStandardImage(path string) (Mat, *ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Mat{}, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Mat{}, nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return Mat{}, nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return matFromDecoded(img, format, path)
}

// matFromFITS converts a parsed FITS frame to a normalized Mat, debayering
// when the frame declares a CFA pattern or the caller asks for it.
func matFromFITS(frame *FITSImage, opts LoadOptions, path string) (Mat, *ImageInfo, error) {
	info := &ImageInfo{
		Path:     path,
		Format:   "fits",
		Width:    frame.Width,
		Height:   frame.Height,
		BitDepth: frame.BitDepth,
		Object:   frame.Object(),
	}
	if exp, ok := frame.ExposureSeconds(); ok {
		info.ExposureSeconds = exp
	}

	if opts.Debayer || frame.BayerPattern() != "" {
		pattern := frame.BayerPattern()
		if pattern != "" && pattern != "RGGB" {
			return Mat{}, nil, fmt.Errorf("%w: unsupported Bayer pattern %q", ErrDecode, pattern)
		}
		return DebayerRGGB(frame.Pixels, frame.BitDepth, frame.Width, frame.Height), info, nil
	}
	return normalizePixels(frame.Pixels, frame.BitDepth, frame.Width, frame.Height), info, nil
}

// matFromDecoded collapses a decoded image to luminance in [0, 1].
func matFromDecoded(img image.Image, format, path string) (Mat, *ImageInfo, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := NewMatWithSize(h, w)
	data := m.DataFloat32()
	for y := 0; y < h; y++ {
		off := y * w
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
			data[off+x] = float32(gray) / 65535.0
		}
	}

	return m, &ImageInfo{
		Path:     path,
		Format:   format,
		Width:    w,
		Height:   h,
		BitDepth: decodedBitDepth(img),
	}, nil
}

// decodedBitDepth reports the sample depth of a decoded image's color
// model: 16 for the wide stdlib models, 8 for everything else.
func decodedBitDepth(img image.Image) int {
	switch img.ColorModel() {
	case color.Gray16Model, color.RGBA64Model, color.NRGBA64Model:
		return 16
	}
	return 8
}

// normalizePixels converts quantized pixels to a float32 Mat in [0, 1],
// dividing by the full-scale value of the source bit depth.
func normalizePixels(pixels []uint16, bitDepth, width, height int) Mat {
	m := NewMatWithSize(height, width)
	data := m.DataFloat32()
	maxVal := float32(uint64(1)<<uint(bitDepth) - 1)
	n := width * height
	for i := 0; i < n; i++ {
		data[i] = float32(pixels[i]) / maxVal
	}
	return m
}

// Package picture provides sheet image loading and binary run source creation.
package picture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"omr-scale/internal/binarize"
	"omr-scale/internal/runs"

	_ "golang.org/x/image/tiff"
)

// ErrNotBinarized is returned when the binary source is requested before binarization.
var ErrNotBinarized = errors.New("picture not binarized")

// SourceKind identifies one image of a Picture.
type SourceKind int

const (
	// SourceInitial is the image as loaded.
	SourceInitial SourceKind = iota
	// SourceBinary is the black and white image.
	SourceBinary
)

func (k SourceKind) String() string {
	switch k {
	case SourceInitial:
		return "initial"
	case SourceBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Picture holds the images of one sheet.
type Picture struct {
	Path    string      // Original file path, empty for in-memory pictures
	Initial image.Image // Loaded image data
	DPI     float64     // Scan resolution read from TIFF tags, 0 if unknown

	binary *image.Gray
	table  *runs.Table
}

// New wraps an in-memory image.
func New(img image.Image) *Picture {
	return &Picture{Initial: img}
}

// Load loads an image from the specified path.
// For TIFF files the resolution is read from the image metadata.
func Load(path string) (*Picture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	pic := New(img)
	pic.Path = path

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if dpi, err := tiffResolution(file); err == nil {
			pic.DPI = dpi
		} else {
			slog.Debug("no TIFF resolution", "path", path, "error", err)
		}
	}

	return pic, nil
}

// Width returns the image width in pixels.
func (p *Picture) Width() int {
	if p.Initial == nil {
		return 0
	}
	return p.Initial.Bounds().Dx()
}

// Height returns the image height in pixels.
func (p *Picture) Height() int {
	if p.Initial == nil {
		return 0
	}
	return p.Initial.Bounds().Dy()
}

// Binarize computes the binary image and its run table with filter.
// A previous binarization is replaced.
func (p *Picture) Binarize(filter binarize.Filter) (*runs.Table, error) {
	if p.Initial == nil {
		return nil, fmt.Errorf("no initial image")
	}
	bin, err := filter.Binarize(p.Initial)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize: %w", err)
	}
	p.binary = bin
	p.table = runs.FromGray(bin)

	area := p.table.Width() * p.table.Height()
	slog.Debug("picture binarized", "path", p.Path, "runs", p.table.RunCount(),
		"foreground", p.table.ForegroundCount(), "pixels", area)
	return p.table, nil
}

// Table returns the binary run table.
func (p *Picture) Table() (*runs.Table, error) {
	if p.table == nil {
		return nil, ErrNotBinarized
	}
	return p.table, nil
}

// Source returns the image of the given kind.
func (p *Picture) Source(kind SourceKind) (image.Image, error) {
	switch kind {
	case SourceInitial:
		if p.Initial == nil {
			return nil, fmt.Errorf("no initial image")
		}
		return p.Initial, nil
	case SourceBinary:
		if p.binary == nil {
			return nil, ErrNotBinarized
		}
		return p.binary, nil
	default:
		return nil, fmt.Errorf("unknown source kind %v", kind)
	}
}

// Discard drops the images that can be recomputed, keeping the run table.
func (p *Picture) Discard(kind SourceKind) {
	switch kind {
	case SourceInitial:
		p.Initial = nil
	case SourceBinary:
		p.binary = nil
	}
}

// TIFF tags and field types holding the image resolution.
const (
	tagXResolution    = 282
	tagYResolution    = 283
	tagResolutionUnit = 296

	typeShort    = 3
	typeRational = 5

	unitCentimeter = 3
)

// tiffResolution returns the dots per inch recorded in the first image
// directory of a TIFF stream.
func tiffResolution(r io.ReadSeeker) (float64, error) {
	var header [8]byte
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, err
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a TIFF stream")
	}

	if _, err := r.Seek(int64(order.Uint32(header[4:])), io.SeekStart); err != nil {
		return 0, err
	}
	var count uint16
	if err := binary.Read(r, order, &count); err != nil {
		return 0, err
	}
	dir := make([]byte, 12*int(count))
	if _, err := io.ReadFull(r, dir); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	unit := uint16(2) // Inch
	for e := dir; len(e) >= 12; e = e[12:] {
		tag, kind := order.Uint16(e[0:]), order.Uint16(e[2:])
		switch {
		case (tag == tagXResolution || tag == tagYResolution) && kind == typeRational:
			v, err := tiffRational(r, order, int64(order.Uint32(e[8:])))
			if err != nil {
				return 0, err
			}
			if tag == tagXResolution {
				xRes = v
			} else {
				yRes = v
			}
		case tag == tagResolutionUnit && kind == typeShort:
			unit = order.Uint16(e[8:])
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution in TIFF directory")
	}
	if unit == unitCentimeter {
		dpi *= 2.54
	}
	return dpi, nil
}

// tiffRational reads the numerator/denominator pair stored at offset.
func tiffRational(r io.ReadSeeker, order binary.ByteOrder, offset int64) (float64, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	var v [2]uint32
	if err := binary.Read(r, order, &v); err != nil {
		return 0, err
	}
	if v[1] == 0 {
		return 0, nil
	}
	return float64(v[0]) / float64(v[1]), nil
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// Package binarize converts scanned sheet images into black and white images.
package binarize

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
)

// Kind identifies a binarization filter.
type Kind int

const (
	// KindGlobal applies one fixed gray threshold to the whole image.
	KindGlobal Kind = iota
	// KindOtsu derives the threshold from the image histogram (Otsu's method).
	KindOtsu
)

// DefaultThreshold is the global filter gray level; darker or equal pixels are black.
const DefaultThreshold = 140

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindOtsu:
		return "otsu"
	default:
		return "unknown"
	}
}

// ParseKind returns the Kind named s (case insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global":
		return KindGlobal, nil
	case "otsu":
		return KindOtsu, nil
	default:
		return 0, fmt.Errorf("unknown binarization filter %q", s)
	}
}

// Filter turns an image into a binary gray image: 0 for black, 255 for white.
type Filter interface {
	Binarize(img image.Image) (*image.Gray, error)
}

// New returns the filter of the given kind.
// threshold only applies to KindGlobal; 0 selects DefaultThreshold.
func New(kind Kind, threshold int) (Filter, error) {
	switch kind {
	case KindGlobal:
		if threshold == 0 {
			threshold = DefaultThreshold
		}
		if threshold < 0 || threshold > 255 {
			return nil, fmt.Errorf("global threshold %d outside [0,255]", threshold)
		}
		return GlobalFilter{Threshold: uint8(threshold)}, nil
	case KindOtsu:
		return OtsuFilter{BlurKernel: 3}, nil
	default:
		return nil, fmt.Errorf("unsupported filter kind %v", kind)
	}
}

// GlobalFilter marks as black every pixel whose gray level is <= Threshold.
type GlobalFilter struct {
	Threshold uint8
}

// Binarize implements Filter.
func (f GlobalFilter) Binarize(img image.Image) (*image.Gray, error) {
	gray := ToGray(img)
	if gray.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}

	out := image.NewGray(image.Rect(0, 0, gray.Bounds().Dx(), gray.Bounds().Dy()))
	b := gray.Bounds()
	for y := 0; y < b.Dy(); y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x, v := range src {
			if v <= f.Threshold {
				dst[x] = 0
			} else {
				dst[x] = 255
			}
		}
	}
	return out, nil
}

// ToGray returns img as a gray image anchored at the origin, converting if needed.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

package binarize

import (
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// OtsuFilter binarizes with a threshold computed by OpenCV from the image histogram.
// A positive odd BlurKernel smooths scan noise first.
type OtsuFilter struct {
	BlurKernel int
}

// Binarize implements Filter.
func (f OtsuFilter) Binarize(img image.Image) (*image.Gray, error) {
	gray := ToGray(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}

	src := grayToMat(gray)
	defer src.Close()

	if f.BlurKernel > 1 {
		k := f.BlurKernel | 1
		gocv.GaussianBlur(src, &src, image.Point{k, k}, 0, 0, gocv.BorderDefault)
	}

	bin := gocv.NewMat()
	defer bin.Close()
	threshold := gocv.Threshold(src, &bin, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	slog.Debug("otsu threshold", "value", threshold, "width", w, "height", h)

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = bin.GetUCharAt(y, x)
		}
	}
	return out, nil
}

// grayToMat copies a gray image into a single channel OpenCV Mat.
func grayToMat(gray *image.Gray) gocv.Mat {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mat.SetUCharAt(y, x, gray.Pix[y*gray.Stride+x])
		}
	}
	return mat
}

package binarize

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "", want: KindGlobal},
		{in: "Global", want: KindGlobal},
		{in: " otsu ", want: KindOtsu},
		{in: "adaptive", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Kind {
	t.Helper()
	k, err := ParseKind(s)
	require.NoError(t, err)
	return k
}

func TestNewGlobalDefaults(t *testing.T) {
	f, err := New(KindGlobal, 0)
	require.NoError(t, err)
	assert.Equal(t, GlobalFilter{Threshold: DefaultThreshold}, f)

	_, err = New(KindGlobal, 300)
	assert.Error(t, err)

	_, err = New(Kind(42), 0)
	assert.Error(t, err)
}

func TestGlobalFilter(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 14, 12))
	img.Set(10, 10, color.RGBA{0, 0, 0, 255})
	img.Set(11, 10, color.RGBA{140, 140, 140, 255})
	img.Set(12, 10, color.RGBA{141, 141, 141, 255})
	img.Set(13, 10, color.White)

	out, err := GlobalFilter{Threshold: 140}.Binarize(img)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds())
	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), out.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(2, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(3, 0).Y)
	// Transparent RGBA pixels convert to black.
	assert.Equal(t, uint8(0), out.GrayAt(0, 1).Y)
}

func TestGlobalFilterEmpty(t *testing.T) {
	_, err := GlobalFilter{Threshold: 1}.Binarize(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
}

func TestToGrayKeepsOriginGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	assert.Same(t, g, ToGray(g))

	shifted := image.NewGray(image.Rect(5, 5, 7, 7))
	shifted.SetGray(5, 5, color.Gray{Y: 9})
	out := ToGray(shifted)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, uint8(9), out.GrayAt(0, 0).Y)
}

// Package scale provides the calibrated measurements of a sheet.
//
// A Scale is computed once per sheet from its run-length histograms and then
// serves as the reference for every size-dependent threshold: symbol sizes are
// expressed as fractions of the interline or of the staff line thickness and
// converted to pixels through the sheet Scale.
package scale

import (
	"fmt"
	"math"
	"strings"

	"omr-scale/internal/histo"
)

// InterlineScale is the distance between two staff lines, center to center.
type InterlineScale struct {
	histo.Range `yaml:",inline"`
}

// LineScale is the staff line thickness.
type LineScale struct {
	histo.Range `yaml:",inline"`
}

// BeamScale is the beam thickness. Extrapolated is set when it was guessed
// from the interline rather than measured.
type BeamScale struct {
	Main         int  `json:"main" yaml:"main"`
	Extrapolated bool `json:"extrapolated,omitempty" yaml:"extrapolated,omitempty"`
}

func (b BeamScale) String() string {
	if b.Extrapolated {
		return fmt.Sprintf("%d(extrapolated)", b.Main)
	}
	return fmt.Sprintf("%d", b.Main)
}

// StemScale is the stem thickness, measured later in the pipeline.
type StemScale struct {
	Main int `json:"main" yaml:"main"`
	Max  int `json:"max" yaml:"max"`
}

// BlackHeadScale is the typical black note head size.
type BlackHeadScale struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// MusicFontScale is the music font selected for the sheet.
type MusicFontScale struct {
	Name      string `json:"name" yaml:"name"`
	PointSize int    `json:"point_size" yaml:"point_size"`
}

// Scale bundles the measurements of one sheet.
// Interline, Line and Beam are always set. The small variants are set when the
// sheet holds two staff sizes. Stem, BlackHead and MusicFont are filled by
// later processing steps.
type Scale struct {
	Interline      *InterlineScale `json:"interline" yaml:"interline"`
	Line           *LineScale      `json:"line" yaml:"line"`
	Beam           *BeamScale      `json:"beam" yaml:"beam"`
	SmallInterline *InterlineScale `json:"small_interline,omitempty" yaml:"small_interline,omitempty"`
	SmallBeam      *BeamScale      `json:"small_beam,omitempty" yaml:"small_beam,omitempty"`
	Stem           *StemScale      `json:"stem,omitempty" yaml:"stem,omitempty"`
	BlackHead      *BlackHeadScale `json:"black_head,omitempty" yaml:"black_head,omitempty"`
	MusicFont      *MusicFontScale `json:"music_font,omitempty" yaml:"music_font,omitempty"`
}

// New assembles a Scale. smallInterline and smallBeam may be nil.
func New(interline InterlineScale, line LineScale, beam BeamScale, smallInterline *InterlineScale, smallBeam *BeamScale) (*Scale, error) {
	if interline.Main <= 0 || !interline.Valid() {
		return nil, fmt.Errorf("invalid interline %s", interline.Range)
	}
	if line.Main <= 0 || !line.Valid() {
		return nil, fmt.Errorf("invalid line thickness %s", line.Range)
	}
	if beam.Main <= 0 {
		return nil, fmt.Errorf("invalid beam thickness %d", beam.Main)
	}
	if smallInterline != nil && smallInterline.Main >= interline.Main {
		return nil, fmt.Errorf("small interline %d not below interline %d", smallInterline.Main, interline.Main)
	}
	if smallBeam != nil && smallBeam.Main > beam.Main {
		return nil, fmt.Errorf("small beam %d above beam %d", smallBeam.Main, beam.Main)
	}

	return &Scale{
		Interline:      &interline,
		Line:           &line,
		Beam:           &beam,
		SmallInterline: smallInterline,
		SmallBeam:      smallBeam,
	}, nil
}

// InterlineValue returns the main interline in pixels.
func (s *Scale) InterlineValue() int { return s.Interline.Main }

// MaxInterline returns the upper bound of the interline range.
func (s *Scale) MaxInterline() int { return s.Interline.Max }

// Fore returns the main staff line thickness.
func (s *Scale) Fore() int { return s.Line.Main }

// MaxFore returns the upper bound of the line thickness range.
func (s *Scale) MaxFore() int { return s.Line.Max }

// BeamThickness returns the main beam thickness.
func (s *Scale) BeamThickness() int { return s.Beam.Main }

// IsBeamExtrapolated reports whether the beam thickness was guessed.
func (s *Scale) IsBeamExtrapolated() bool { return s.Beam.Extrapolated }

// SmallInterlineValue returns the small staff interline, or 0.
func (s *Scale) SmallInterlineValue() int {
	if s.SmallInterline == nil {
		return 0
	}
	return s.SmallInterline.Main
}

// SmallBeamThickness returns the small staff beam thickness, or 0.
func (s *Scale) SmallBeamThickness() int {
	if s.SmallBeam == nil {
		return 0
	}
	return s.SmallBeam.Main
}

// SetStem records the stem measurement.
func (s *Scale) SetStem(stem StemScale) { s.Stem = &stem }

// SetBlackHead records the black head measurement.
func (s *Scale) SetBlackHead(head BlackHeadScale) { s.BlackHead = &head }

// SetMusicFont records the music font choice.
func (s *Scale) SetMusicFont(font MusicFontScale) { s.MusicFont = &font }

// Fraction is a length expressed in interlines.
type Fraction float64

// LineFraction is a length expressed in staff line thicknesses.
type LineFraction float64

// AreaFraction is a surface expressed in square interlines.
type AreaFraction float64

// ToPixels converts an interline fraction to rounded pixels.
func (s *Scale) ToPixels(f Fraction) int {
	return int(math.Round(s.ToPixelsFloat(f)))
}

// ToPixelsFloat converts an interline fraction to pixels.
func (s *Scale) ToPixelsFloat(f Fraction) float64 {
	return float64(f) * float64(s.Interline.Main)
}

// ToLinePixels converts a line fraction to rounded pixels.
func (s *Scale) ToLinePixels(f LineFraction) int {
	return int(math.Round(float64(f) * float64(s.Line.Main)))
}

// ToPixelArea converts an area fraction to square pixels.
func (s *Scale) ToPixelArea(f AreaFraction) int {
	il := float64(s.Interline.Main)
	return int(math.Round(float64(f) * il * il))
}

// PixelsToFrac converts pixels to an interline fraction.
func (s *Scale) PixelsToFrac(pixels float64) Fraction {
	return Fraction(pixels / float64(s.Interline.Main))
}

// PixelsToLineFrac converts pixels to a line fraction.
func (s *Scale) PixelsToLineFrac(pixels float64) LineFraction {
	return LineFraction(pixels / float64(s.Line.Main))
}

// PixelsToAreaFrac converts square pixels to an area fraction.
func (s *Scale) PixelsToAreaFrac(area float64) AreaFraction {
	il := float64(s.Interline.Main)
	return AreaFraction(area / (il * il))
}

func (s *Scale) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "line:%s interline:%s beam:%s", s.Line.Range, s.Interline.Range, s.Beam)
	if s.SmallInterline != nil {
		fmt.Fprintf(&sb, " smallInterline:%s", s.SmallInterline.Range)
	}
	if s.SmallBeam != nil {
		fmt.Fprintf(&sb, " smallBeam:%s", s.SmallBeam)
	}
	if s.Stem != nil {
		fmt.Fprintf(&sb, " stem:%d/%d", s.Stem.Main, s.Stem.Max)
	}
	return sb.String()
}

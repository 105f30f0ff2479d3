package scaler

import (
	"errors"
	"fmt"
)

// Params holds the tunable ratios and bounds of scale detection.
// See DefaultParams for the reference values.
type Params struct {
	// Histogram domains, as ratios of the image height
	MaxBlackRatio float64 `mapstructure:"max_black_ratio" yaml:"max_black_ratio"`
	MaxWhiteRatio float64 `mapstructure:"max_white_ratio" yaml:"max_white_ratio"`

	// Minimum ratio of foreground pixels over the image area
	MinBlackRatio float64 `mapstructure:"min_black_ratio" yaml:"min_black_ratio"`

	// Black run histogram peaks
	BlackDerivativeRatio float64 `mapstructure:"black_derivative_ratio" yaml:"black_derivative_ratio"`
	BlackGainRatio       float64 `mapstructure:"black_gain_ratio" yaml:"black_gain_ratio"`
	BlackPeakRatio       float64 `mapstructure:"black_peak_ratio" yaml:"black_peak_ratio"`

	// Combo histogram peaks
	ComboDerivativeRatio float64 `mapstructure:"combo_derivative_ratio" yaml:"combo_derivative_ratio"`
	ComboGainRatio       float64 `mapstructure:"combo_gain_ratio" yaml:"combo_gain_ratio"`
	MaxSecondRatio       float64 `mapstructure:"max_second_ratio" yaml:"max_second_ratio"`

	// Plausible interline values (pixels)
	MinInterline int `mapstructure:"min_interline" yaml:"min_interline"`
	MaxInterline int `mapstructure:"max_interline" yaml:"max_interline"`

	// Beam thickness search, as fractions of the interline
	BeamMinFraction    float64 `mapstructure:"beam_min_fraction" yaml:"beam_min_fraction"`
	BeamMaxFraction    float64 `mapstructure:"beam_max_fraction" yaml:"beam_max_fraction"`
	BeamRangeRatio     float64 `mapstructure:"beam_range_ratio" yaml:"beam_range_ratio"`
	BeamMinCountRatio  float64 `mapstructure:"beam_min_count_ratio" yaml:"beam_min_count_ratio"`
	BeamGuessTolerance int     `mapstructure:"beam_guess_tolerance" yaml:"beam_guess_tolerance"`
}

// DefaultParams returns the reference detection parameters.
// They are tuned for pages scanned around 300 DPI.
func DefaultParams() Params {
	return Params{
		MaxBlackRatio: 0.05, // Beams and line runs, not stems
		MaxWhiteRatio: 0.10, // Room for large interlines on small images

		MinBlackRatio: 0.001,

		BlackDerivativeRatio: 0.025,
		BlackGainRatio:       0.1,
		BlackPeakRatio:       0.5, // Beams of 1-line staves may rival staff lines

		ComboDerivativeRatio: 0.025,
		ComboGainRatio:       0.1,
		MaxSecondRatio:       2.0,

		MinInterline: 11,
		MaxInterline: 100,

		BeamMinFraction:    0.25,
		BeamMaxFraction:    0.75,
		BeamRangeRatio:     0.6,
		BeamMinCountRatio:  0.01,
		BeamGuessTolerance: 2,
	}
}

// WithInterlineBounds returns a copy of params with custom plausible interline bounds.
func (p Params) WithInterlineBounds(minInterline, maxInterline int) Params {
	p.MinInterline = minInterline
	p.MaxInterline = maxInterline
	return p
}

// WithHeightRatios returns a copy of params with custom black and white run bounds.
func (p Params) WithHeightRatios(maxBlack, maxWhite float64) Params {
	p.MaxBlackRatio = maxBlack
	p.MaxWhiteRatio = maxWhite
	return p
}

// WithBeamGuess returns a copy of params with custom beam guess settings.
func (p Params) WithBeamGuess(rangeRatio float64, tolerance int) Params {
	p.BeamRangeRatio = rangeRatio
	p.BeamGuessTolerance = tolerance
	return p
}

// Validate checks that params describe a usable configuration.
func (p Params) Validate() error {
	var errs []error
	ratios := []struct {
		name  string
		value float64
	}{
		{"max_black_ratio", p.MaxBlackRatio},
		{"max_white_ratio", p.MaxWhiteRatio},
		{"min_black_ratio", p.MinBlackRatio},
		{"black_derivative_ratio", p.BlackDerivativeRatio},
		{"black_gain_ratio", p.BlackGainRatio},
		{"black_peak_ratio", p.BlackPeakRatio},
		{"combo_derivative_ratio", p.ComboDerivativeRatio},
		{"combo_gain_ratio", p.ComboGainRatio},
		{"beam_min_fraction", p.BeamMinFraction},
		{"beam_max_fraction", p.BeamMaxFraction},
		{"beam_range_ratio", p.BeamRangeRatio},
		{"beam_min_count_ratio", p.BeamMinCountRatio},
	}
	for _, r := range ratios {
		if r.value <= 0 || r.value > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0,1], got %v", r.name, r.value))
		}
	}
	if p.MaxSecondRatio < 1 {
		errs = append(errs, fmt.Errorf("max_second_ratio must be >= 1, got %v", p.MaxSecondRatio))
	}
	if p.MinInterline <= 0 || p.MaxInterline < p.MinInterline {
		errs = append(errs, fmt.Errorf("invalid interline bounds [%d,%d]", p.MinInterline, p.MaxInterline))
	}
	if p.BeamMaxFraction < p.BeamMinFraction {
		errs = append(errs, fmt.Errorf("beam_max_fraction %v below beam_min_fraction %v", p.BeamMaxFraction, p.BeamMinFraction))
	}
	if p.BeamGuessTolerance < 0 {
		errs = append(errs, fmt.Errorf("beam_guess_tolerance must be >= 0, got %d", p.BeamGuessTolerance))
	}
	return errors.Join(errs...)
}

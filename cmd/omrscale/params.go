package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"omr-scale/internal/scaler"
)

// paramFlags overrides the configured detection parameters from the command line.
type paramFlags struct {
	minInterline  int
	maxInterline  int
	maxBlackRatio float64
	maxWhiteRatio float64
	beamRange     float64
	beamTolerance int
}

func (p *paramFlags) register(fs *pflag.FlagSet) {
	def := scaler.DefaultParams()
	fs.IntVar(&p.minInterline, "min-interline", def.MinInterline, "smallest plausible interline in pixels")
	fs.IntVar(&p.maxInterline, "max-interline", def.MaxInterline, "largest plausible interline in pixels")
	fs.Float64Var(&p.maxBlackRatio, "max-black-ratio", def.MaxBlackRatio, "black run histogram bound, as a ratio of the image height")
	fs.Float64Var(&p.maxWhiteRatio, "max-white-ratio", def.MaxWhiteRatio, "white run histogram bound, as a ratio of the image height")
	fs.Float64Var(&p.beamRange, "beam-range-ratio", def.BeamRangeRatio, "beam peak acceptance ratio")
	fs.IntVar(&p.beamTolerance, "beam-tolerance", def.BeamGuessTolerance, "accepted distance between beam peak and guess")
}

// apply returns base with the flags set on fs, validated.
func (p *paramFlags) apply(fs *pflag.FlagSet, base scaler.Params) (scaler.Params, error) {
	params := base
	if fs.Changed("min-interline") || fs.Changed("max-interline") {
		lo, hi := params.MinInterline, params.MaxInterline
		if fs.Changed("min-interline") {
			lo = p.minInterline
		}
		if fs.Changed("max-interline") {
			hi = p.maxInterline
		}
		params = params.WithInterlineBounds(lo, hi)
	}
	if fs.Changed("max-black-ratio") || fs.Changed("max-white-ratio") {
		black, white := params.MaxBlackRatio, params.MaxWhiteRatio
		if fs.Changed("max-black-ratio") {
			black = p.maxBlackRatio
		}
		if fs.Changed("max-white-ratio") {
			white = p.maxWhiteRatio
		}
		params = params.WithHeightRatios(black, white)
	}
	if fs.Changed("beam-range-ratio") || fs.Changed("beam-tolerance") {
		ratio, tol := params.BeamRangeRatio, params.BeamGuessTolerance
		if fs.Changed("beam-range-ratio") {
			ratio = p.beamRange
		}
		if fs.Changed("beam-tolerance") {
			tol = p.beamTolerance
		}
		params = params.WithBeamGuess(ratio, tol)
	}

	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("invalid detection parameters: %w", err)
	}
	return params, nil
}

// Package scaler computes the scale of a sheet from its binary image.
//
// The computation scans the vertical runs of the sheet into two histograms,
// extracts the staff line thickness from the black run histogram, the
// interline from the black+white combo histogram, then measures or guesses
// the beam thickness. Sheets lacking staff lines are rejected with a
// *RejectedError.
package scaler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"omr-scale/internal/histo"
	"omr-scale/internal/runs"
	"omr-scale/internal/scale"
)

// ErrNoSource is returned when no binary run source is available.
var ErrNoSource = errors.New("no binary source")

// Overrides carries user specified measurements. Zero means not specified.
type Overrides struct {
	Interline     int `json:"interline,omitempty" yaml:"interline,omitempty"`
	BeamThickness int `json:"beam_thickness,omitempty" yaml:"beam_thickness,omitempty"`
}

// Target is the sheet side of scale retrieval.
type Target interface {
	Scale() *scale.Scale
	SetScale(s *scale.Scale)
	Overrides() Overrides
	RunSource() (runs.Source, error)
}

// Resolver is implemented by targets that know the scan resolution of their image.
// A zero DPI means unknown.
type Resolver interface {
	DPI() float64
}

// Histograms exposes the data of the last computation, for diagnostics.
type Histograms struct {
	Black      *histo.Function
	Combo      *histo.Function
	BlackPeaks []histo.Range
	ComboPeaks []histo.Range
	BeamQuorum int

	// Count-weighted mean and standard deviation of the staff line peak,
	// NaN when no line peak was found.
	LineMean   float64
	LineStdDev float64
}

// beamKeys holds the beam thickness candidates; zero means absent.
type beamKeys struct {
	key   int
	key2  int
	guess int
}

// Builder computes sheet scales. A Builder is meant for one sheet at a time
// and is not safe for concurrent use.
type Builder struct {
	params  Params
	decider Decider
	logger  *slog.Logger
	last    *keeper
}

// NewBuilder creates a Builder. A nil decider removes every doubtful sheet.
func NewBuilder(params Params, decider Decider) *Builder {
	if decider == nil {
		decider = AutoDecider{}
	}
	return &Builder{
		params:  params,
		decider: decider,
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger used to report results.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// RetrieveScale returns the scale of t, computing and storing it if t has none yet.
func (b *Builder) RetrieveScale(t Target) (*scale.Scale, error) {
	if s := t.Scale(); s != nil {
		return s, nil
	}

	src, err := t.RunSource()
	if err != nil {
		return nil, fmt.Errorf("failed to get binary source: %w", err)
	}

	dpi := 0.0
	if r, ok := t.(Resolver); ok {
		dpi = r.DPI()
	}

	s, err := b.build(src, t.Overrides(), dpi)
	if err != nil {
		return nil, err
	}
	t.SetScale(s)
	return s, nil
}

// Build computes a scale from the runs of src.
func (b *Builder) Build(src runs.Source, ov Overrides) (*scale.Scale, error) {
	return b.build(src, ov, 0)
}

// build computes a scale; dpi only enriches the resolution messages.
func (b *Builder) build(src runs.Source, ov Overrides, dpi float64) (*scale.Scale, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if err := b.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scale parameters: %w", err)
	}

	k := newKeeper(src, b.params, b.logger)
	b.last = k

	k.buildBlacks()
	lp, err := k.retrieveLinePeak()
	if err != nil {
		return nil, err
	}

	k.buildCombos(lp.line)
	ip, err := k.retrieveInterlinePeaks(lp.line, ov.Interline)
	if err != nil {
		return nil, err
	}

	if ov.Interline <= 0 {
		if err := b.checkResolution(ip.combo, dpi); err != nil {
			return nil, err
		}
	}

	keys := b.computeBeamKeys(k, lp, ip, ov)

	s, err := b.assemble(lp, ip, keys, ov)
	if err != nil {
		return nil, err
	}
	b.logger.Info("scale retrieved", "scale", s.String())
	return s, nil
}

// Histograms returns the histograms of the last Build, or nil.
func (b *Builder) Histograms() *Histograms {
	if b.last == nil {
		return nil
	}
	h := &Histograms{
		Black:      b.last.blacks,
		Combo:      b.last.combos,
		BlackPeaks: b.last.blackFinder.Peaks(),
		ComboPeaks: b.last.comboFinder.Peaks(),
		BeamQuorum: b.last.blackFinder.Quorum(),
		LineMean:   math.NaN(),
		LineStdDev: math.NaN(),
	}
	if b.last.line.Main > 0 {
		h.LineMean, h.LineStdDev = b.last.blacks.Stats(b.last.line)
	}
	return h
}

// checkResolution asks the decider about implausible interline values.
func (b *Builder) checkResolution(combo histo.Range, dpi float64) error {
	if combo.Main < b.params.MinInterline {
		msg := fmt.Sprintf("With an interline value of %d pixels, either this sheet contains no multi-line staves, "+
			"or the picture resolution is too low (try 300 DPI).", combo.Main)
		if dpi > 0 {
			msg += fmt.Sprintf(" The image is scanned at %.0f DPI.", dpi)
		}
		if b.decider.DecideOnRemoval(msg, false) {
			return reject(ReasonLowResolution, "%s", msg)
		}
		b.logger.Warn("keeping sheet with low interline", "interline", combo.Main, "dpi", dpi)
	}

	if combo.Main > b.params.MaxInterline {
		msg := fmt.Sprintf("Too large interline value: %d pixels. "+
			"This sheet does not seem to contain staff lines.", combo.Main)
		if b.decider.DecideOnRemoval(msg, false) {
			return reject(ReasonHighInterline, "%s", msg)
		}
		b.logger.Warn("keeping sheet with high interline", "interline", combo.Main)
	}

	return nil
}

// computeBeamKeys measures the beam thickness, or guesses it from the interline.
func (b *Builder) computeBeamKeys(k *keeper, lp linePeaks, ip interlinePeaks, ov Overrides) beamKeys {
	if ov.BeamThickness > 0 {
		return beamKeys{key: ov.BeamThickness}
	}
	if lp.beam > 0 {
		return beamKeys{key: lp.beam}
	}

	larger := ov.Interline
	if larger <= 0 {
		larger = ip.combo.Main
		if ip.combo2 != nil {
			larger = max(larger, ip.combo2.Main)
		}
	}

	il := float64(larger)
	minHeight := max(float64(lp.line.Max), b.params.BeamMinFraction*il)
	maxHeight := max(il-float64(lp.line.Main), b.params.BeamMaxFraction*il)
	// A beam is at least one pixel thick, whatever the interline.
	keys := beamKeys{guess: max(1, int(math.Round(b.params.BeamRangeRatio*maxHeight)))}

	quorum := k.beamQuorum()
	k.blackFinder.SetQuorum(quorum)

	// Strictly inside (minHeight, maxHeight)
	lo := int(math.Floor(minHeight)) + 1
	hi := int(math.Ceil(maxHeight)) - 1
	maxima := k.blacks.LocalMaxima(lo, hi)
	b.logger.Debug("beam search", "min", minHeight, "max", maxHeight, "guess", keys.guess,
		"quorum", quorum, "maxima", maxima)

	if len(maxima) == 0 {
		return keys
	}

	first := maxima[0]
	if k.blacks.Value(first) >= quorum || abs(first-keys.guess) <= b.params.BeamGuessTolerance {
		keys.key = first
	} else {
		return keys
	}

	if ip.combo2 != nil && len(maxima) > 1 {
		if second := maxima[1]; k.blacks.Value(second) >= quorum {
			keys.key2 = second
		}
	}

	return keys
}

// assemble builds the final scale from the peaks and beam keys.
func (b *Builder) assemble(lp linePeaks, ip interlinePeaks, keys beamKeys, ov Overrides) (*scale.Scale, error) {
	line := scale.LineScale{Range: lp.line}

	var interline scale.InterlineScale
	var smallInterline *scale.InterlineScale
	if ov.Interline > 0 {
		interline = scale.InterlineScale{Range: histo.Single(ov.Interline)}
	} else {
		interline = scale.InterlineScale{Range: ip.combo}
		if ip.combo2 != nil {
			other := scale.InterlineScale{Range: *ip.combo2}
			if other.Main > interline.Main {
				interline, other = other, interline
			}
			smallInterline = &other
		}
	}

	var beam scale.BeamScale
	var smallBeam *scale.BeamScale
	switch {
	case keys.key > 0 && keys.key2 > 0:
		beam = scale.BeamScale{Main: max(keys.key, keys.key2)}
		smallBeam = &scale.BeamScale{Main: min(keys.key, keys.key2)}
	case keys.key > 0:
		beam = scale.BeamScale{Main: keys.key}
	default:
		beam = scale.BeamScale{Main: keys.guess, Extrapolated: true}
	}

	s, err := scale.New(interline, line, beam, smallInterline, smallBeam)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble scale: %w", err)
	}
	return s, nil
}

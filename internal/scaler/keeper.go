package scaler

import (
	"log/slog"
	"math"

	"omr-scale/internal/histo"
	"omr-scale/internal/runs"
)

// linePeaks is the outcome of the black histogram analysis.
type linePeaks struct {
	line histo.Range // Staff line thickness
	beam int         // Beam thickness when beams rival lines, else 0
}

// interlinePeaks is the outcome of the combo histogram analysis.
// Both are empty when the interline is specified by the user.
type interlinePeaks struct {
	combo  histo.Range
	combo2 *histo.Range // Second staff size population
}

// keeper builds and analyzes the run histograms of one sheet.
//
// The black histogram counts vertical black runs by length. The combo
// histogram counts, for each staff-line-like black run, the length of that
// run plus an adjacent white gap, which approximates the interline.
type keeper struct {
	params   Params
	logger   *slog.Logger
	source   runs.Source
	width    int
	height   int
	maxBlack int
	maxWhite int

	blacks      *histo.Function
	combos      *histo.Function
	blackFinder *histo.PeakFinder
	comboFinder *histo.PeakFinder

	line histo.Range // Staff line peak, zero until retrieved
}

func newKeeper(src runs.Source, params Params, logger *slog.Logger) *keeper {
	h := src.Height()
	maxBlack := int(math.Round(params.MaxBlackRatio * float64(h)))
	maxWhite := int(math.Round(params.MaxWhiteRatio * float64(h)))

	blacks := histo.NewFunction(0, maxBlack)
	combos := histo.NewFunction(0, maxBlack+maxWhite)

	return &keeper{
		params:      params,
		logger:      logger,
		source:      src,
		width:       src.Width(),
		height:      h,
		maxBlack:    maxBlack,
		maxWhite:    maxWhite,
		blacks:      blacks,
		combos:      combos,
		blackFinder: histo.NewPeakFinder("black", blacks, 0, maxBlack),
		comboFinder: histo.NewPeakFinder("combo", combos, 0, maxBlack+maxWhite),
	}
}

// buildBlacks counts every black run no longer than maxBlack.
func (k *keeper) buildBlacks() {
	for x := 0; x < k.width; x++ {
		for r := range k.source.Column(x) {
			if r.Length <= k.maxBlack {
				k.blacks.AddValue(r.Length, 1)
			}
		}
	}
}

// buildCombos counts black+white lengths around line-like black runs.
// A white gap between two black runs, not longer than maxWhite, is counted
// once with the black run above and once with the black run below, each time
// only if that black run length lies within line. Gaps touching the image
// border are ignored.
func (k *keeper) buildCombos(line histo.Range) {
	for x := 0; x < k.width; x++ {
		prevLength := 0
		prevStop := 0
		for r := range k.source.Column(x) {
			if prevLength > 0 {
				white := r.Start - prevStop - 1
				if white > 0 && white <= k.maxWhite {
					if line.Contains(prevLength) {
						k.combos.AddValue(prevLength+white, 1)
					}
					if line.Contains(r.Length) {
						k.combos.AddValue(white+r.Length, 1)
					}
				}
			}
			prevLength = r.Length
			prevStop = r.Stop()
		}
	}
}

// retrieveLinePeak determines the staff line thickness, and possibly the
// beam thickness when beams are as frequent as lines.
func (k *keeper) retrieveLinePeak() (linePeaks, error) {
	pixels := k.blacks.WeightedArea()
	minPixels := k.params.MinBlackRatio * float64(k.width) * float64(k.height)
	if float64(pixels) <= minPixels {
		ratio := 0.0
		if k.width*k.height > 0 {
			ratio = 100 * float64(pixels) / float64(k.width*k.height)
		}
		return linePeaks{}, reject(ReasonBlank, "Sheet almost blank (%d black pixels, %.3f%%)", pixels, ratio)
	}

	area := k.blacks.Area()
	minDerivative := int(math.Round(k.params.BlackDerivativeRatio * float64(area)))
	peaks := k.blackFinder.FindPeaks(0, minDerivative, k.params.BlackGainRatio)
	if len(peaks) == 0 {
		return linePeaks{}, reject(ReasonNoBlackPeak, "No significant black lines found")
	}

	lp := splitBlackPeaks(k.blacks, peaks, k.params.BlackPeakRatio)
	k.line = lp.line
	mean, stdDev := k.blacks.Stats(lp.line)
	k.logger.Debug("black peaks", "peaks", len(peaks), "line", lp.line.String(), "beam", lp.beam,
		"mean", mean, "stdDev", stdDev)
	return lp, nil
}

// splitBlackPeaks keeps the peaks whose count reaches ratio of the best one.
// Of the two highest remaining peaks, the thinner is the staff line and the
// thicker a beam. Further peaks are ignored.
func splitBlackPeaks(f *histo.Function, peaks []histo.Range, ratio float64) linePeaks {
	best := float64(f.Value(peaks[0].Main))

	var strong []histo.Range
	for _, p := range peaks {
		if float64(f.Value(p.Main)) >= ratio*best {
			strong = append(strong, p)
		}
	}

	if len(strong) < 2 {
		return linePeaks{line: strong[0]}
	}

	a, b := strong[0], strong[1]
	if b.Main < a.Main {
		a, b = b, a
	}
	return linePeaks{line: a, beam: b.Main}
}

// retrieveInterlinePeaks determines the interline, and possibly a second
// interline for a second staff size. A positive specified interline skips
// detection.
func (k *keeper) retrieveInterlinePeaks(line histo.Range, specified int) (interlinePeaks, error) {
	area := k.combos.Area()
	minDerivative := int(math.Round(k.params.ComboDerivativeRatio * float64(area)))
	peaks := k.comboFinder.FindPeaks(0, minDerivative, k.params.ComboGainRatio)

	if specified > 0 {
		k.logger.Debug("interline specified", "interline", specified, "detected", len(peaks))
		return interlinePeaks{}, nil
	}

	if len(peaks) == 0 {
		return interlinePeaks{}, reject(ReasonNoComboPeak, "No regularly spaced lines found")
	}

	ip := interlinePeaks{combo: peaks[0]}
	for _, p := range peaks[1:] {
		hi, lo := max(p.Main, ip.combo.Main), min(p.Main, ip.combo.Main)
		if lo <= 0 || float64(hi)/float64(lo) > k.params.MaxSecondRatio {
			k.logger.Debug("combo peak too different", "peak", p.String(), "combo", ip.combo.String())
			continue
		}
		if abs(p.Main-ip.combo.Main) <= line.Main {
			merged := ip.combo.Merge(p)
			k.logger.Debug("combo peaks merged", "peak", p.String(), "combo", ip.combo.String(), "merged", merged.String())
			ip.combo = merged
			continue
		}
		if ip.combo2 == nil {
			second := p
			ip.combo2 = &second
		}
	}

	return ip, nil
}

// beamQuorum returns the black run count a beam thickness needs to be trusted.
func (k *keeper) beamQuorum() int {
	return int(math.Round(float64(k.blacks.Area()) * k.params.BeamMinCountRatio))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package histo

import (
	"log/slog"
	"math"
)

// PeakFinder extracts the significant peaks of a Function.
//
// Candidates are the local maxima of the function, visited by decreasing
// count. A candidate whose left derivative is below the minimum derivative is
// considered noise. An accepted candidate is expanded on both sides while the
// count at the expanding edge stays above a fraction of the peak count, so
// ranges of close peaks may overlap. Merging them is left to the caller.
type PeakFinder struct {
	name     string
	function *Function
	xMin     int
	xMax     int

	// Last parameters and result, kept for diagnostics.
	minDerivative int
	minGainRatio  float64
	quorum        int
	peaks         []Range
}

// NewPeakFinder creates a PeakFinder searching f within [xMin, xMax].
func NewPeakFinder(name string, f *Function, xMin, xMax int) *PeakFinder {
	return &PeakFinder{
		name:     name,
		function: f,
		xMin:     max(xMin, f.XMin()),
		xMax:     min(xMax, f.XMax()),
	}
}

// Name returns the label given at construction.
func (pf *PeakFinder) Name() string { return pf.name }

// Function returns the underlying function.
func (pf *PeakFinder) Function() *Function { return pf.function }

// FindPeaks returns at most maxPeakCount peaks, ordered by decreasing count.
// A maxPeakCount <= 0 means no limit. An empty result means no significant peak.
func (pf *PeakFinder) FindPeaks(maxPeakCount, minDerivative int, minGainRatio float64) []Range {
	if maxPeakCount <= 0 {
		maxPeakCount = math.MaxInt
	}
	pf.minDerivative = minDerivative
	pf.minGainRatio = minGainRatio

	f := pf.function
	var peaks []Range

	for _, x := range f.LocalMaxima(pf.xMin, pf.xMax) {
		if len(peaks) >= maxPeakCount {
			break
		}
		if d := f.Derivative(x); d < minDerivative {
			slog.Debug("peak candidate too flat", "finder", pf.name, "x", x, "derivative", d, "min", minDerivative)
			continue
		}

		peaks = append(peaks, pf.expand(x))
	}

	pf.peaks = peaks
	slog.Debug("peaks found", "finder", pf.name, "area", f.Area(), "minDerivative", minDerivative, "peaks", len(peaks))
	return peaks
}

// expand grows the range around main while counts stay above the gain threshold.
func (pf *PeakFinder) expand(main int) Range {
	f := pf.function
	threshold := pf.minGainRatio * float64(f.Value(main))

	lo := main
	for lo > pf.xMin && float64(f.Value(lo-1)) >= threshold && f.Value(lo-1) > 0 {
		lo--
	}
	hi := main
	for hi < pf.xMax && float64(f.Value(hi+1)) >= threshold && f.Value(hi+1) > 0 {
		hi++
	}
	return Range{Min: lo, Main: main, Max: hi}
}

// SetQuorum records the quorum a caller applied to this finder's peaks.
func (pf *PeakFinder) SetQuorum(quorum int) { pf.quorum = quorum }

// Quorum returns the last quorum set.
func (pf *PeakFinder) Quorum() int { return pf.quorum }

// Thresholds returns the parameters of the last FindPeaks call.
func (pf *PeakFinder) Thresholds() (minDerivative int, minGainRatio float64) {
	return pf.minDerivative, pf.minGainRatio
}

// Peaks returns the result of the last FindPeaks call.
func (pf *PeakFinder) Peaks() []Range { return pf.peaks }

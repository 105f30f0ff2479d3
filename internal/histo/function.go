package histo

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Function is a dense integer counter over the domain [xMin, xMax].
// Values added outside the domain are discarded.
type Function struct {
	xMin   int
	xMax   int
	values []int
}

// Entry is one non-zero point of a Function.
type Entry struct {
	X     int `json:"x" yaml:"x"`
	Count int `json:"count" yaml:"count"`
}

// NewFunction allocates a Function over [xMin, xMax].
// An inverted domain is reduced to the single value xMin.
func NewFunction(xMin, xMax int) *Function {
	if xMax < xMin {
		xMax = xMin
	}
	return &Function{
		xMin:   xMin,
		xMax:   xMax,
		values: make([]int, xMax-xMin+1),
	}
}

// XMin returns the lower domain bound.
func (f *Function) XMin() int { return f.xMin }

// XMax returns the upper domain bound.
func (f *Function) XMax() int { return f.xMax }

// AddValue increments the count at x by delta. Out of domain x is ignored.
func (f *Function) AddValue(x, delta int) {
	if x < f.xMin || x > f.xMax {
		return
	}
	f.values[x-f.xMin] += delta
}

// Value returns the count at x, 0 outside the domain.
func (f *Function) Value(x int) int {
	if x < f.xMin || x > f.xMax {
		return 0
	}
	return f.values[x-f.xMin]
}

// Area returns the sum of all counts.
func (f *Function) Area() int {
	area := 0
	for _, v := range f.values {
		area += v
	}
	return area
}

// WeightedArea returns the sum of x * count over the domain.
// For a run-length histogram this is the number of pixels covered by the runs.
func (f *Function) WeightedArea() int {
	area := 0
	for i, v := range f.values {
		area += (f.xMin + i) * v
	}
	return area
}

// Derivative returns f(x) - f(x-1).
func (f *Function) Derivative(x int) int {
	return f.Value(x) - f.Value(x-1)
}

// LocalMaxima returns the abscissae in [xMin, xMax] whose count is positive and
// strictly greater than each existing neighbor in the whole domain.
// Result is sorted by descending count, then ascending x.
func (f *Function) LocalMaxima(xMin, xMax int) []int {
	xMin = max(xMin, f.xMin)
	xMax = min(xMax, f.xMax)

	var maxima []int
	for x := xMin; x <= xMax; x++ {
		v := f.Value(x)
		if v <= 0 {
			continue
		}
		if x > f.xMin && f.Value(x-1) >= v {
			continue
		}
		if x < f.xMax && f.Value(x+1) >= v {
			continue
		}
		maxima = append(maxima, x)
	}

	sort.SliceStable(maxima, func(i, j int) bool {
		vi, vj := f.Value(maxima[i]), f.Value(maxima[j])
		if vi != vj {
			return vi > vj
		}
		return maxima[i] < maxima[j]
	})
	return maxima
}

// Entries returns the non-zero points of the function in ascending x order.
func (f *Function) Entries() []Entry {
	var entries []Entry
	for i, v := range f.values {
		if v != 0 {
			entries = append(entries, Entry{X: f.xMin + i, Count: v})
		}
	}
	return entries
}

// Stats returns the count-weighted mean and standard deviation of x over r.
// Both are NaN when r holds no counts.
func (f *Function) Stats(r Range) (mean, stdDev float64) {
	var xs, weights []float64
	total := 0.0
	for x := r.Min; x <= r.Max; x++ {
		v := f.Value(x)
		if v <= 0 {
			continue
		}
		xs = append(xs, float64(x))
		weights = append(weights, float64(v))
		total += float64(v)
	}
	if total == 0 {
		return math.NaN(), math.NaN()
	}
	if total <= 1 {
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, weights)
}

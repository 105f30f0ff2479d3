// Package histo provides integer histograms and the peak detection run over them.
package histo

import "fmt"

// Range describes one cluster of histogram values.
// Main is the most frequent value, Min and Max bound the cluster.
type Range struct {
	Min  int `json:"min" yaml:"min"`
	Main int `json:"main" yaml:"main"`
	Max  int `json:"max" yaml:"max"`
}

// NewRange creates a Range, returning an error if min <= main <= max does not hold.
func NewRange(min, main, max int) (Range, error) {
	r := Range{Min: min, Main: main, Max: max}
	if !r.Valid() {
		return Range{}, fmt.Errorf("invalid range %s", r)
	}
	return r, nil
}

// Single returns the degenerate range (v, v, v).
func Single(v int) Range {
	return Range{Min: v, Main: v, Max: v}
}

// Valid reports whether Min <= Main <= Max.
func (r Range) Valid() bool {
	return r.Min <= r.Main && r.Main <= r.Max
}

// Contains reports whether x lies within [Min, Max].
func (r Range) Contains(x int) bool {
	return x >= r.Min && x <= r.Max
}

// Width returns the number of integer values covered by the range.
func (r Range) Width() int {
	return r.Max - r.Min + 1
}

// Merge returns the range spanning both r and o, centered on the average of their mains.
func (r Range) Merge(o Range) Range {
	return Range{
		Min:  min(r.Min, o.Min),
		Main: (r.Main + o.Main) / 2,
		Max:  max(r.Max, o.Max),
	}
}

func (r Range) String() string {
	return fmt.Sprintf("(%d,%d,%d)", r.Min, r.Main, r.Max)
}

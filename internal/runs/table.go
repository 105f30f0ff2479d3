// Package runs provides vertical run-length encoding of binary images.
package runs

import (
	"fmt"
	"image"
	"iter"
	"slices"
)

// Run is a maximal vertical span of foreground pixels within one column.
type Run struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Stop returns the ordinate of the last pixel of the run.
func (r Run) Stop() int {
	return r.Start + r.Length - 1
}

// Source exposes the vertical foreground runs of a binary image.
// Column returns a fresh sequence on every call, in ascending start order.
type Source interface {
	Width() int
	Height() int
	Column(x int) iter.Seq[Run]
}

// Table is an in-memory Source holding every column's runs.
type Table struct {
	width   int
	height  int
	columns [][]Run
}

// NewTable creates an empty table of the given dimensions.
func NewTable(width, height int) *Table {
	return &Table{
		width:   width,
		height:  height,
		columns: make([][]Run, width),
	}
}

// Width returns the number of columns.
func (t *Table) Width() int { return t.width }

// Height returns the column height in pixels.
func (t *Table) Height() int { return t.height }

// AddRun inserts a run in column x, keeping the column sorted by start.
// Runs must lie within the column and not overlap existing runs.
func (t *Table) AddRun(x, start, length int) error {
	if x < 0 || x >= t.width {
		return fmt.Errorf("column %d out of range [0,%d)", x, t.width)
	}
	if length <= 0 || start < 0 || start+length > t.height {
		return fmt.Errorf("run start=%d length=%d outside column height %d", start, length, t.height)
	}

	col := t.columns[x]
	i, _ := slices.BinarySearchFunc(col, start, func(r Run, s int) int { return r.Start - s })
	if i > 0 && col[i-1].Stop() >= start {
		return fmt.Errorf("run at %d overlaps run %+v in column %d", start, col[i-1], x)
	}
	if i < len(col) && col[i].Start <= start+length-1 {
		return fmt.Errorf("run at %d overlaps run %+v in column %d", start, col[i], x)
	}
	t.columns[x] = slices.Insert(col, i, Run{Start: start, Length: length})
	return nil
}

// Column returns the runs of column x. Out of range columns yield nothing.
func (t *Table) Column(x int) iter.Seq[Run] {
	return func(yield func(Run) bool) {
		if x < 0 || x >= t.width {
			return
		}
		for _, r := range t.columns[x] {
			if !yield(r) {
				return
			}
		}
	}
}

// RunCount returns the total number of runs.
func (t *Table) RunCount() int {
	n := 0
	for _, col := range t.columns {
		n += len(col)
	}
	return n
}

// ForegroundCount returns the number of foreground pixels.
func (t *Table) ForegroundCount() int {
	n := 0
	for _, col := range t.columns {
		for _, r := range col {
			n += r.Length
		}
	}
	return n
}

// IsForeground reports whether a gray level denotes a foreground pixel.
func IsForeground(v uint8) bool {
	return v < 128
}

// FromGray builds the vertical run table of a binary gray image.
// Pixels darker than mid-gray are foreground.
func FromGray(img *image.Gray) *Table {
	b := img.Bounds()
	t := NewTable(b.Dx(), b.Dy())

	for x := 0; x < b.Dx(); x++ {
		var col []Run
		start := -1
		for y := 0; y < b.Dy(); y++ {
			black := IsForeground(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			switch {
			case black && start < 0:
				start = y
			case !black && start >= 0:
				col = append(col, Run{Start: start, Length: y - start})
				start = -1
			}
		}
		if start >= 0 {
			col = append(col, Run{Start: start, Length: b.Dy() - start})
		}
		t.columns[x] = col
	}

	return t
}

package scaler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"omr-scale/internal/runs"
	"omr-scale/internal/scale"
)

const (
	pageWidth  = 100
	pageHeight = 2000
)

// page builds synthetic run tables. With the default params a 2000 pixel
// high page accepts black runs up to 100 and white gaps up to 200 pixels.
type page struct {
	t   *testing.T
	tbl *runs.Table
}

func newPage(t *testing.T) *page {
	t.Helper()
	return &page{t: t, tbl: runs.NewTable(pageWidth, pageHeight)}
}

// bar adds a black run at y in the first cols columns.
func (p *page) bar(y, thickness, cols int) *page {
	p.t.Helper()
	for x := 0; x < cols; x++ {
		require.NoError(p.t, p.tbl.AddRun(x, y, thickness))
	}
	return p
}

// staff adds a staff of lines across the whole page width, first line at y.
func (p *page) staff(y, lines, thickness, interline int) *page {
	p.t.Helper()
	for i := 0; i < lines; i++ {
		p.bar(y+i*interline, thickness, pageWidth)
	}
	return p
}

// staves adds n 5-line staves 300 pixels apart, starting at y.
// Gaps between staves exceed the maximum white run.
func (p *page) staves(y, n, thickness, interline int) *page {
	p.t.Helper()
	for i := 0; i < n; i++ {
		p.staff(y+i*300, 5, thickness, interline)
	}
	return p
}

// standardPage holds six staves with 3 pixel lines every 20 pixels.
func standardPage(t *testing.T) *page {
	t.Helper()
	return newPage(t).staves(50, 6, 3, 20)
}

// sheet is an in-memory Target counting source loads.
type sheet struct {
	scale     *scale.Scale
	overrides Overrides
	source    runs.Source
	loads     int
}

func (s *sheet) Scale() *scale.Scale      { return s.scale }
func (s *sheet) SetScale(sc *scale.Scale) { s.scale = sc }
func (s *sheet) Overrides() Overrides     { return s.overrides }

func (s *sheet) RunSource() (runs.Source, error) {
	s.loads++
	if s.source == nil {
		return nil, ErrNoSource
	}
	return s.source, nil
}

// scannedSheet is a sheet knowing its scan resolution.
type scannedSheet struct {
	sheet
	dpi float64
}

func (s *scannedSheet) DPI() float64 { return s.dpi }

// recorder is a Decider recording its calls.
type recorder struct {
	remove   bool
	messages []string
}

func (r *recorder) DecideOnRemoval(message string, dummy bool) bool {
	r.messages = append(r.messages, message)
	return r.remove || dummy
}

package scaler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omr-scale/internal/histo"
	"omr-scale/internal/runs"
)

func requireRejected(t *testing.T, err error, want Reason) *RejectedError {
	t.Helper()
	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, want, rej.Reason)
	return rej
}

func TestBuildStandardPage(t *testing.T) {
	b := NewBuilder(DefaultParams(), nil)
	s, err := b.Build(standardPage(t).tbl, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, histo.Single(3), s.Line.Range)
	assert.Equal(t, histo.Single(20), s.Interline.Range)
	assert.Equal(t, 10, s.Beam.Main)
	assert.True(t, s.Beam.Extrapolated)
	assert.Nil(t, s.SmallInterline)
	assert.Nil(t, s.SmallBeam)

	h := b.Histograms()
	require.NotNil(t, h)
	assert.Equal(t, 3000, h.Black.Value(3))
	assert.Equal(t, 4800, h.Combo.Value(20))
	assert.Equal(t, []histo.Range{histo.Single(3)}, h.BlackPeaks)
	assert.Equal(t, []histo.Range{histo.Single(20)}, h.ComboPeaks)
	assert.Equal(t, 30, h.BeamQuorum)
	assert.InDelta(t, 3.0, h.LineMean, 1e-9)
	assert.InDelta(t, 0.0, h.LineStdDev, 1e-9)
}

func TestHistogramsBeforeBuild(t *testing.T) {
	assert.Nil(t, NewBuilder(DefaultParams(), nil).Histograms())
}

func TestBuildBeamThickness(t *testing.T) {
	tests := []struct {
		name         string
		beam         int
		cols         int
		override     int
		want         int
		extrapolated bool
	}{
		{name: "measured above quorum", beam: 14, cols: 50, want: 14},
		{name: "weak and far from guess", beam: 14, cols: 10, want: 10, extrapolated: true},
		{name: "weak but close to guess", beam: 11, cols: 10, want: 11},
		{name: "override wins", beam: 14, cols: 50, override: 12, want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := standardPage(t).bar(1800, tt.beam, tt.cols)
			s, err := NewBuilder(DefaultParams(), nil).Build(p.tbl, Overrides{BeamThickness: tt.override})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Beam.Main)
			assert.Equal(t, tt.extrapolated, s.Beam.Extrapolated)
			assert.Equal(t, 20, s.InterlineValue())
		})
	}
}

func TestBuildBeamsRivalingLines(t *testing.T) {
	p := newPage(t).staves(50, 2, 3, 20)
	for i := 0; i < 12; i++ {
		p.bar(650+i*30, 8, pageWidth)
	}

	s, err := NewBuilder(DefaultParams(), nil).Build(p.tbl, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, histo.Single(3), s.Line.Range, "thinner peak is the line")
	assert.Equal(t, 8, s.Beam.Main)
	assert.False(t, s.Beam.Extrapolated)
	assert.Equal(t, 20, s.InterlineValue())
}

func TestBuildDualPopulation(t *testing.T) {
	p := newPage(t).
		staves(50, 3, 3, 20).
		staff(950, 5, 3, 14).
		staff(1250, 5, 3, 14).
		bar(1550, 10, 60).
		bar(1800, 7, 50)

	s, err := NewBuilder(DefaultParams(), nil).Build(p.tbl, Overrides{})
	require.NoError(t, err)

	require.NotNil(t, s.SmallInterline)
	require.NotNil(t, s.SmallBeam)
	assert.Equal(t, 20, s.InterlineValue())
	assert.Equal(t, 14, s.SmallInterlineValue())
	assert.Equal(t, 10, s.BeamThickness())
	assert.Equal(t, 7, s.SmallBeamThickness())
	assert.False(t, s.Beam.Extrapolated)
	assert.False(t, s.SmallBeam.Extrapolated)
}

func TestBuildMergesClosePeaks(t *testing.T) {
	p := newPage(t).
		staves(50, 4, 3, 20).
		staves(1250, 2, 3, 22)

	s, err := NewBuilder(DefaultParams(), nil).Build(p.tbl, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, histo.Range{Min: 20, Main: 21, Max: 22}, s.Interline.Range)
	assert.Nil(t, s.SmallInterline)
	assert.Equal(t, 11, s.Beam.Main)
	assert.True(t, s.Beam.Extrapolated)
}

func TestBuildSpecifiedInterline(t *testing.T) {
	s, err := NewBuilder(DefaultParams(), nil).Build(standardPage(t).tbl, Overrides{Interline: 30})
	require.NoError(t, err)

	assert.Equal(t, histo.Single(30), s.Interline.Range)
	assert.Equal(t, histo.Single(3), s.Line.Range)
	assert.Equal(t, 16, s.Beam.Main)
	assert.True(t, s.Beam.Extrapolated)
}

func TestBuildBeamGuessFloor(t *testing.T) {
	// round(0.6 * 0.75) is 0, below any drawable beam.
	s, err := NewBuilder(DefaultParams(), nil).Build(standardPage(t).tbl, Overrides{Interline: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Beam.Main)
	assert.True(t, s.Beam.Extrapolated)
}

func TestBuildSpecifiedInterlineWithoutStaves(t *testing.T) {
	p := newPage(t)
	for i := 0; i < 6; i++ {
		p.staff(50+i*300, 1, 3, 20)
	}

	_, err := NewBuilder(DefaultParams(), nil).Build(p.tbl, Overrides{})
	requireRejected(t, err, ReasonNoComboPeak)

	s, err := NewBuilder(DefaultParams(), nil).Build(p.tbl, Overrides{Interline: 25})
	require.NoError(t, err)
	assert.Equal(t, 25, s.InterlineValue())
	assert.Equal(t, 13, s.Beam.Main)
	assert.True(t, s.Beam.Extrapolated)
}

func TestBuildBlankPages(t *testing.T) {
	tests := []struct {
		name string
		page func(t *testing.T) *page
	}{
		{name: "all white", page: newPage},
		{name: "almost blank", page: func(t *testing.T) *page { return newPage(t).bar(100, 3, 50) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			s, err := NewBuilder(DefaultParams(), rec).Build(tt.page(t).tbl, Overrides{})
			assert.Nil(t, s)
			rej := requireRejected(t, err, ReasonBlank)
			assert.Contains(t, rej.Message, "almost blank")
			assert.True(t, rej.Reason.Mandatory())
			assert.Empty(t, rec.messages, "mandatory rejections are notified by the caller")
		})
	}
}

func TestBuildNoBlackPeak(t *testing.T) {
	p := newPage(t)
	for x := 0; x < pageWidth; x++ {
		require.NoError(t, p.tbl.AddRun(x, 10, x%50+1))
	}

	_, err := NewBuilder(DefaultParams(), nil).Build(p.tbl, Overrides{})
	requireRejected(t, err, ReasonNoBlackPeak)
}

func TestBuildResolutionChecks(t *testing.T) {
	lowRes := func(t *testing.T) *page { return newPage(t).staves(50, 6, 2, 8) }
	highInterline := func(t *testing.T) *page {
		return newPage(t).staff(50, 5, 3, 120).staff(1000, 5, 3, 120)
	}

	tests := []struct {
		name          string
		page          func(t *testing.T) *page
		remove        bool
		wantReason    Reason
		wantInterline int
		wantBeam      int
	}{
		{name: "low resolution removed", page: lowRes, remove: true, wantReason: ReasonLowResolution},
		{name: "low resolution kept", page: lowRes, wantInterline: 8, wantBeam: 4},
		{name: "high interline removed", page: highInterline, remove: true, wantReason: ReasonHighInterline},
		{name: "high interline kept", page: highInterline, wantInterline: 120, wantBeam: 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{remove: tt.remove}
			s, err := NewBuilder(DefaultParams(), rec).Build(tt.page(t).tbl, Overrides{})
			require.Len(t, rec.messages, 1)

			if tt.remove {
				rej := requireRejected(t, err, tt.wantReason)
				assert.False(t, rej.Reason.Mandatory())
				assert.Equal(t, rec.messages[0], rej.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInterline, s.InterlineValue())
			assert.Equal(t, tt.wantBeam, s.BeamThickness())
			assert.True(t, s.IsBeamExtrapolated())
		})
	}
}

func TestBuildSpecifiedInterlineSkipsResolutionCheck(t *testing.T) {
	rec := &recorder{remove: true}
	s, err := NewBuilder(DefaultParams(), rec).Build(newPage(t).staves(50, 6, 2, 8).tbl, Overrides{Interline: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, s.InterlineValue())
	assert.Empty(t, rec.messages)
}

func TestBuildInvalidInput(t *testing.T) {
	_, err := NewBuilder(DefaultParams(), nil).Build(nil, Overrides{})
	assert.ErrorIs(t, err, ErrNoSource)

	bad := DefaultParams().WithInterlineBounds(50, 10)
	_, err = NewBuilder(bad, nil).Build(runs.NewTable(1, 1), Overrides{})
	assert.Error(t, err)
}

func TestRetrieveScaleIsIdempotent(t *testing.T) {
	sh := &sheet{source: standardPage(t).tbl}
	b := NewBuilder(DefaultParams(), nil)

	first, err := b.RetrieveScale(sh)
	require.NoError(t, err)
	second, err := b.RetrieveScale(sh)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, sh.scale)
	assert.Equal(t, 1, sh.loads)
}

func TestRetrieveScaleFailures(t *testing.T) {
	_, err := NewBuilder(DefaultParams(), nil).RetrieveScale(&sheet{})
	assert.ErrorIs(t, err, ErrNoSource)

	sh := &sheet{source: newPage(t).tbl}
	_, err = NewBuilder(DefaultParams(), nil).RetrieveScale(sh)
	requireRejected(t, err, ReasonBlank)
	assert.Nil(t, sh.scale)
}

func TestRetrieveScaleUsesOverrides(t *testing.T) {
	sh := &sheet{source: standardPage(t).tbl, overrides: Overrides{Interline: 24, BeamThickness: 9}}
	s, err := NewBuilder(DefaultParams(), nil).RetrieveScale(sh)
	require.NoError(t, err)
	assert.Equal(t, 24, s.InterlineValue())
	assert.Equal(t, 9, s.BeamThickness())
	assert.False(t, s.IsBeamExtrapolated())
}

func TestRetrieveScaleReportsResolution(t *testing.T) {
	lowRes := func() runs.Source { return newPage(t).staves(50, 6, 2, 8).tbl }

	rec := &recorder{remove: true}
	scanned := &scannedSheet{sheet: sheet{source: lowRes()}, dpi: 150}
	_, err := NewBuilder(DefaultParams(), rec).RetrieveScale(scanned)
	rej := requireRejected(t, err, ReasonLowResolution)
	assert.Contains(t, rej.Message, "scanned at 150 DPI")

	rec = &recorder{remove: true}
	_, err = NewBuilder(DefaultParams(), rec).RetrieveScale(&sheet{source: lowRes()})
	rej = requireRejected(t, err, ReasonLowResolution)
	assert.NotContains(t, rej.Message, "scanned at")
}

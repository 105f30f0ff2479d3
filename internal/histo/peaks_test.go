package histo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPeaksSingleValue(t *testing.T) {
	f := newFunc(0, 50, map[int]int{3: 500})
	pf := NewPeakFinder("black", f, 0, 50)

	peaks := pf.FindPeaks(0, 10, 0.1)
	require.Len(t, peaks, 1)
	assert.Equal(t, Single(3), peaks[0])
	assert.Equal(t, peaks, pf.Peaks())
}

func TestFindPeaksExpansion(t *testing.T) {
	// 10% of 100 is 10: 2 and 5 qualify, 1 and 6 do not.
	f := newFunc(0, 50, map[int]int{1: 9, 2: 10, 3: 100, 4: 40, 5: 12, 6: 5})
	pf := NewPeakFinder("black", f, 0, 50)

	peaks := pf.FindPeaks(0, 10, 0.1)
	require.Len(t, peaks, 1)
	assert.Equal(t, Range{Min: 2, Main: 3, Max: 5}, peaks[0])
}

func TestFindPeaksRejectsFlatCandidates(t *testing.T) {
	f := newFunc(0, 50, map[int]int{3: 100, 10: 20, 11: 25, 20: 60})
	pf := NewPeakFinder("black", f, 0, 50)

	// Candidate 11 has derivative 5, below the threshold.
	peaks := pf.FindPeaks(0, 10, 0.5)
	require.Len(t, peaks, 2)
	assert.Equal(t, 3, peaks[0].Main)
	assert.Equal(t, 20, peaks[1].Main)

	minDerivative, gain := pf.Thresholds()
	assert.Equal(t, 10, minDerivative)
	assert.Equal(t, 0.5, gain)
}

func TestFindPeaksMaxCount(t *testing.T) {
	f := newFunc(0, 50, map[int]int{3: 100, 20: 60, 30: 50})
	pf := NewPeakFinder("combo", f, 0, 50)

	peaks := pf.FindPeaks(2, 1, 0.5)
	require.Len(t, peaks, 2)
	assert.Equal(t, []int{3, 20}, []int{peaks[0].Main, peaks[1].Main})
}

func TestFindPeaksKeepsOverlappingCandidates(t *testing.T) {
	f := newFunc(0, 50, map[int]int{10: 100, 11: 60, 12: 70, 13: 50})
	pf := NewPeakFinder("combo", f, 0, 50)

	// 12 lies inside the expansion of 10 but is a peak of its own.
	peaks := pf.FindPeaks(0, 1, 0.3)
	require.Len(t, peaks, 2)
	assert.Equal(t, Range{Min: 10, Main: 10, Max: 13}, peaks[0])
	assert.Equal(t, Range{Min: 10, Main: 12, Max: 13}, peaks[1])
}

func TestFindPeaksEmpty(t *testing.T) {
	pf := NewPeakFinder("empty", NewFunction(0, 10), 0, 10)
	assert.Empty(t, pf.FindPeaks(0, 1, 0.1))

	pf.SetQuorum(12)
	assert.Equal(t, 12, pf.Quorum())
	assert.Equal(t, "empty", pf.Name())
}

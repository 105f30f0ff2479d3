package main

import (
	"encoding/json"
	"errors"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"omr-scale/internal/book"
	"omr-scale/internal/histo"
	"omr-scale/internal/scale"
	"omr-scale/internal/scaler"
)

// sheetReport is the printed outcome of one sheet.
type sheetReport struct {
	Sheet      int              `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Image      string           `json:"image" yaml:"image"`
	DPI        float64          `json:"dpi,omitempty" yaml:"dpi,omitempty"`
	Specified  *scaler.Overrides `json:"specified,omitempty" yaml:"specified,omitempty"`
	Scale      *scale.Scale     `json:"scale,omitempty" yaml:"scale,omitempty"`
	Measures   []measure        `json:"measures,omitempty" yaml:"measures,omitempty"`
	Rejected   *rejection       `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	Histograms *histograms      `json:"histograms,omitempty" yaml:"histograms,omitempty"`
}

// measure is one known scale value, labelled for reading.
type measure struct {
	Item        string `json:"item" yaml:"item"`
	Description string `json:"description" yaml:"description"`
	Pixels      int    `json:"pixels" yaml:"pixels"`
}

func newMeasures(s *scale.Scale) []measure {
	if s == nil {
		return nil
	}
	var ms []measure
	for _, item := range scale.Items() {
		if v, ok := s.Value(item); ok {
			ms = append(ms, measure{Item: item.String(), Description: item.Description(), Pixels: v})
		}
	}
	return ms
}

type rejection struct {
	Reason  string `json:"reason" yaml:"reason"`
	Message string `json:"message" yaml:"message"`
}

type histograms struct {
	Black      []histo.Entry `json:"black" yaml:"black"`
	Combo      []histo.Entry `json:"combo" yaml:"combo"`
	BlackPeaks []histo.Range `json:"black_peaks" yaml:"black_peaks"`
	ComboPeaks []histo.Range `json:"combo_peaks" yaml:"combo_peaks"`
	BeamQuorum int           `json:"beam_quorum" yaml:"beam_quorum"`
	LineMean   float64       `json:"line_mean,omitempty" yaml:"line_mean,omitempty"`
	LineStdDev float64       `json:"line_std_dev,omitempty" yaml:"line_std_dev,omitempty"`
}

// newSheetReport describes s after a scale retrieval that returned err.
func newSheetReport(s *book.Sheet, err error) sheetReport {
	r := sheetReport{
		Sheet: s.Number,
		Image:    s.ImagePath,
		DPI:      s.DPI(),
		Scale:    s.Scale(),
		Measures: newMeasures(s.Scale()),
	}
	if ov := s.Overrides(); ov != (scaler.Overrides{}) {
		r.Specified = &ov
	}
	if s.Invalid {
		r.Rejected = &rejection{Reason: s.Rejection, Message: s.Message}
	}
	var rej *scaler.RejectedError
	if err != nil && !errors.As(err, &rej) {
		r.Error = err.Error()
	}
	return r
}

func newHistograms(h *scaler.Histograms) *histograms {
	if h == nil {
		return nil
	}
	r := &histograms{
		Black:      h.Black.Entries(),
		Combo:      h.Combo.Entries(),
		BlackPeaks: h.BlackPeaks,
		ComboPeaks: h.ComboPeaks,
		BeamQuorum: h.BeamQuorum,
	}
	// NaN has no JSON encoding
	if !math.IsNaN(h.LineMean) {
		r.LineMean, r.LineStdDev = h.LineMean, h.LineStdDev
	}
	return r
}

// writeOutput encodes v in the requested format.
func writeOutput(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

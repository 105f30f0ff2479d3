package book

import (
	"errors"
	"fmt"
	"path/filepath"

	"omr-scale/internal/binarize"
	"omr-scale/internal/picture"
	"omr-scale/internal/runs"
	"omr-scale/internal/scale"
	"omr-scale/internal/scaler"
)

// Sheet is one page of a book.
type Sheet struct {
	Number    int              `json:"number"`
	ImagePath string           `json:"image"` // Relative to the book file
	Specified scaler.Overrides `json:"specified,omitempty"`

	// Invalid sheets are excluded from processing but kept in the book.
	Invalid   bool   `json:"invalid,omitempty"`
	Rejection string `json:"rejection,omitempty"`
	Message   string `json:"message,omitempty"`

	Measured   *scale.Scale `json:"scale,omitempty"`
	Resolution float64      `json:"dpi,omitempty"` // Scan resolution, 0 if unknown

	bookDir string
	filter  binarize.Filter
	picture *picture.Picture
}

// ImageFile returns the absolute path to the sheet image.
func (s *Sheet) ImageFile() string {
	if s.ImagePath == "" || filepath.IsAbs(s.ImagePath) {
		return s.ImagePath
	}
	return filepath.Join(s.bookDir, s.ImagePath)
}

// Scale implements scaler.Target.
func (s *Sheet) Scale() *scale.Scale { return s.Measured }

// SetScale implements scaler.Target.
func (s *Sheet) SetScale(sc *scale.Scale) { s.Measured = sc }

// Overrides implements scaler.Target.
func (s *Sheet) Overrides() scaler.Overrides { return s.Specified }

// DPI implements scaler.Resolver.
func (s *Sheet) DPI() float64 { return s.Resolution }

// SetFilter selects the binarization filter used when loading the image.
func (s *Sheet) SetFilter(f binarize.Filter) { s.filter = f }

// SetPicture installs an already loaded picture.
func (s *Sheet) SetPicture(p *picture.Picture) { s.picture = p }

// Picture returns the sheet picture, nil until loaded.
func (s *Sheet) Picture() *picture.Picture { return s.picture }

// RunSource implements scaler.Target, loading and binarizing the image on demand.
func (s *Sheet) RunSource() (runs.Source, error) {
	if s.picture == nil {
		if s.ImagePath == "" {
			return nil, fmt.Errorf("sheet %d: %w", s.Number, scaler.ErrNoSource)
		}
		pic, err := picture.Load(s.ImageFile())
		if err != nil {
			return nil, fmt.Errorf("sheet %d: %w", s.Number, err)
		}
		s.picture = pic
	}
	if s.picture.DPI > 0 {
		s.Resolution = s.picture.DPI
	}

	if tbl, err := s.picture.Table(); err == nil {
		return tbl, nil
	}

	filter := s.filter
	if filter == nil {
		filter = binarize.GlobalFilter{Threshold: binarize.DefaultThreshold}
	}
	tbl, err := s.picture.Binarize(filter)
	if err != nil {
		return nil, fmt.Errorf("sheet %d: %w", s.Number, err)
	}
	s.picture.Discard(picture.SourceInitial)
	return tbl, nil
}

// RetrieveScale computes the sheet scale with b unless already known.
// A rejected sheet is marked invalid; mandatory rejections are notified to decider.
func (s *Sheet) RetrieveScale(b *scaler.Builder, decider scaler.Decider) (*scale.Scale, error) {
	sc, err := b.RetrieveScale(s)
	if err == nil {
		return sc, nil
	}

	var rej *scaler.RejectedError
	if errors.As(err, &rej) {
		s.Invalidate(rej)
		if rej.Reason.Mandatory() && decider != nil {
			decider.DecideOnRemoval(fmt.Sprintf("Sheet #%d: %s", s.Number, rej.Message), true)
		}
	}
	return nil, err
}

// Invalidate marks the sheet invalid for the given rejection.
func (s *Sheet) Invalidate(rej *scaler.RejectedError) {
	s.Invalid = true
	s.Rejection = rej.Reason.String()
	s.Message = rej.Message
}

// Reset drops the sheet scale, validity and images, forcing a new computation.
func (s *Sheet) Reset() {
	s.Measured = nil
	s.Invalid = false
	s.Rejection = ""
	s.Message = ""
	s.picture = nil
}

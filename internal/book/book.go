// Package book provides book file handling: a set of sheets and their scales.
package book

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// CurrentVersion is the book file format version written by Save.
const CurrentVersion = 1

// File represents a book file (.omrbook): the sheet images of one score.
type File struct {
	Version  int       `json:"version"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	Sheets []*Sheet `json:"sheets"`

	Settings Settings `json:"settings"`
}

// Settings holds book-wide processing choices.
type Settings struct {
	Filter    string `json:"filter,omitempty"`    // Binarization filter name
	Threshold int    `json:"threshold,omitempty"` // Global filter threshold
}

// New creates a new book with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		ID:       uuid.NewString(),
		Name:     name,
		Created:  now,
		Modified: now,
		Settings: Settings{Filter: "global"},
	}
}

// Load loads a book from a file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b File
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse book %s: %w", path, err)
	}
	if b.Version > CurrentVersion {
		return nil, fmt.Errorf("book %s has version %d, newer than supported %d", path, b.Version, CurrentVersion)
	}
	if _, err := uuid.Parse(b.ID); err != nil {
		return nil, fmt.Errorf("book %s has invalid id %q: %w", path, b.ID, err)
	}

	dir := filepath.Dir(path)
	for _, s := range b.Sheets {
		s.bookDir = dir
	}
	return &b, nil
}

// Save saves the book to a file.
func (b *File) Save(path string) error {
	b.Modified = time.Now()

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// AddSheet appends a sheet for imagePath, stored relative to the book file.
func (b *File) AddSheet(bookPath, imagePath string) *Sheet {
	s := &Sheet{
		Number:  len(b.Sheets) + 1,
		bookDir: filepath.Dir(bookPath),
	}
	rel, err := filepath.Rel(s.bookDir, imagePath)
	if err != nil {
		s.ImagePath = imagePath
	} else {
		s.ImagePath = rel
	}
	b.Sheets = append(b.Sheets, s)
	b.Modified = time.Now()
	return s
}

// Sheet returns the sheet with the given number, or nil.
func (b *File) Sheet(number int) *Sheet {
	for _, s := range b.Sheets {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// ValidSheets returns the sheets not marked invalid.
func (b *File) ValidSheets() []*Sheet {
	var valid []*Sheet
	for _, s := range b.Sheets {
		if !s.Invalid {
			valid = append(valid, s)
		}
	}
	return valid
}

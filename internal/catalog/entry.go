package catalog

import (
	"strings"
)

// Status is the lifecycle state of a catalog entry. Values compare
// case-insensitively and treat spaces and hyphens as equivalent, so
// "Currently Reading" and "currently-reading" are the same status.
type Status string

const (
	StatusAvailable        Status = "Available"
	StatusCurrentlyReading Status = "Currently Reading"
	StatusRead             Status = "Read"
	StatusWantToRead       Status = "Want to Read"
	StatusCheckedOut       Status = "Checked Out"
	StatusReserved         Status = "Reserved"
)

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "-", " ")), "-")
}

// Is reports whether s and other name the same status.
func (s Status) Is(other Status) bool {
	return normalizeStatus(string(s)) == normalizeStatus(string(other))
}

// Entry is a single book record.
type Entry struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Year   int    `json:"year,omitempty" yaml:"year,omitempty"`
	Genre  string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Status Status `json:"status" yaml:"status"`
	Rating int    `json:"rating,omitempty" yaml:"rating,omitempty"`
	Notes  string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ClampRating forces a rating into [0,5].
func ClampRating(r int) int {
	switch {
	case r < 0:
		return 0
	case r > 5:
		return 5
	}
	return r
}

// Normalize returns a copy of e with trimmed strings, a clamped rating and
// a default status.
func (e Entry) Normalize() Entry {
	e.Title = strings.TrimSpace(e.Title)
	e.Author = strings.TrimSpace(e.Author)
	e.Genre = strings.TrimSpace(e.Genre)
	e.Rating = ClampRating(e.Rating)
	if strings.TrimSpace(string(e.Status)) == "" {
		e.Status = StatusAvailable
	}
	if e.Year < 0 {
		e.Year = 0
	}
	return e
}

// Key identifies an entry by title and author, case-insensitively.
func (e Entry) Key() string {
	return strings.ToLower(e.Title) + "\x00" + strings.ToLower(e.Author)
}

// Rated reports whether the entry carries a rating.
func (e Entry) Rated() bool { return e.Rating > 0 }

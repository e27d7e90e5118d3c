package subtitle

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read(path string) (*File, error)
}

// Line is one caption block.
type Line struct {
	Index     int           // sequence index, informational only
	StartTime time.Duration // start time
	EndTime   time.Duration // end time
	Text      string        // caption text, lines joined by "\n"
}

// File represents subtitle file
type File struct {
	Path     string
	Lines    []Line
	Language language.Tag
	Format   string // e.g. SRT
}

// Transcript is the plain text of a subtitle file: one entry per caption
// text line, in caption order, never empty.
type Transcript []string

func (t Transcript) String() string {
	return strings.Join(t, "\n")
}

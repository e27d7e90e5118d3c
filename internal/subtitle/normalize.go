package subtitle

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// LineKind classifies one physical line of a subtitle file.
type LineKind int

const (
	KindText LineKind = iota
	KindBlank
	KindIndex
	KindTimestamp
)

var (
	indexLine     = regexp.MustCompile(`^\d+$`)
	timestampLine = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[,.]\d{3}`)
)

// Classify reports what kind of line s is. Surrounding whitespace is
// ignored, so a padded number is an index line and a transcript line never
// classifies differently once trimmed.
func Classify(s string) LineKind {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return KindBlank
	case indexLine.MatchString(s):
		return KindIndex
	case timestampLine.MatchString(s):
		return KindTimestamp
	default:
		return KindText
	}
}

// Normalize filters subtitle content down to its text lines, trimmed and in
// input order. It works line by line without tracking caption blocks, so
// irregular spacing or overlong lines never cause an error.
func Normalize(r io.Reader) (Transcript, error) {
	ret := make(Transcript, 0)

	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	for {
		line, err := br.ReadString('\n')
		if line != "" && Classify(line) == KindText {
			ret = append(ret, strings.TrimSpace(line))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read subtitle: %w", err)
		}
	}
	return ret, nil
}

// NormalizeFile normalizes the subtitle at srtPath and writes the transcript
// to txtPath, lines joined by "\n" without a trailing newline.
func NormalizeFile(srtPath, txtPath string) (Transcript, error) {
	in, err := os.Open(srtPath)
	if err != nil {
		return nil, fmt.Errorf("open subtitle: %w", err)
	}
	defer in.Close()

	transcript, err := Normalize(in)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", srtPath, err)
	}

	if err := os.WriteFile(txtPath, []byte(transcript.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}
	return transcript, nil
}

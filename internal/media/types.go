package media

import (
	"context"

	"golang.org/x/text/language"
)

// StreamDescription describes one subtitle stream of a container as reported
// by ffprobe.
type StreamDescription struct {
	Index    int          // absolute stream index in the container
	Codec    string       // e.g. subrip, ass, dvb_subtitle
	Language string       // ISO 639-2 tag as stored, "und" when missing
	Title    string       // free-form stream title
	LangTag  language.Tag // parsed Language, language.Und when unknown
	Default  bool
}

type Descriptions []StreamDescription

// Languages returns the language of every stream, in stream order.
func (d Descriptions) Languages() []string {
	ret := make([]string, 0, len(d))
	for _, desc := range d {
		ret = append(ret, desc.Language)
	}
	return ret
}

// Operator demuxes and inspects media containers.
type Operator interface {
	// ExtractSubtitle writes the subtitle stream matched by selector to
	// output as SRT. The output is overwritten when present.
	ExtractSubtitle(ctx context.Context, input, selector, output string) error
	ReadSubtitleDescription(ctx context.Context, input string) (Descriptions, error)
}

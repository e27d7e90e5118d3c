package subtitle

import (
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// minReliableRunes is the amount of text below which detection is not
// attempted.
const minReliableRunes = 40

// DetectLanguage guesses the language of the captions as a whole. It
// returns language.Und when there is too little text or the guess is
// unreliable.
func DetectLanguage(texts []string) language.Tag {
	joined := strings.Join(texts, " ")
	if utf8.RuneCountInString(joined) < minReliableRunes {
		return language.Und
	}

	info := whatlanggo.Detect(joined)
	if !info.IsReliable() {
		return language.Und
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return language.Und
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und
	}
	return tag
}

// SameLanguage compares base languages, so "fi" matches "fi-FI". Und never
// matches.
func SameLanguage(a, b language.Tag) bool {
	if a == language.Und || b == language.Und {
		return false
	}
	ab, _ := a.Base()
	bb, _ := b.Base()
	return ab == bb
}

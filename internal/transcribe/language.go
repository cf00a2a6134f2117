package transcribe

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the language of a transcript.
// Returns language.Und when the text is empty or the guess has no ISO 639-1 code.
func DetectLanguage(text string) (language.Tag, float64) {
	if strings.TrimSpace(text) == "" {
		return language.Und, 0
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return language.Und, info.Confidence
	}

	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, info.Confidence
	}
	return tag, info.Confidence
}

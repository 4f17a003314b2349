package chatbot

import "strings"

// Language is a supported reply language code.
type Language string

const (
	English Language = "en"
	Sinhala Language = "si"
	Tamil   Language = "ta"
)

// ParseLanguage accepts a language code case-insensitively.
func ParseLanguage(raw string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case English:
		return English, true
	case Sinhala:
		return Sinhala, true
	case Tamil:
		return Tamil, true
	}
	return "", false
}

// Unicode blocks for the two non-Latin scripts.
const (
	sinhalaFirst, sinhalaLast = '\u0D80', '\u0DFF'
	tamilFirst, tamilLast     = '\u0B80', '\u0BFF'
)

// Romanised words that suggest the writer thinks in Sinhala or Tamil.
var (
	sinhalaHints = []string{"ayubowan", "kohomada", "mokakda", "karanne", "kohede", "pansal", "istuti", "kema"}
	tamilHints   = []string{"vanakkam", "eppadi", "vakuppu", "enge", "nandri", "saapadu", "irukku"}
)

// Detector picks the reply language for a message.
type Detector struct {
	transliteration bool
}

// NewDetector builds a detector. With transliteration enabled, romanised
// Sinhala or Tamil words in Latin text also select that language.
func NewDetector(transliteration bool) *Detector {
	return &Detector{transliteration: transliteration}
}

// Detect returns the hint when it names a supported language, otherwise the
// language implied by the script of text. Unknown hints are ignored.
func (d *Detector) Detect(text, hint string) Language {
	if lang, ok := ParseLanguage(hint); ok {
		return lang
	}
	hasTamil := false
	for _, r := range text {
		switch {
		case r >= sinhalaFirst && r <= sinhalaLast:
			return Sinhala
		case r >= tamilFirst && r <= tamilLast:
			hasTamil = true
		}
	}
	if hasTamil {
		return Tamil
	}
	if d != nil && d.transliteration {
		tokens := tokenize(normalize(text))
		if containsAny(tokens, sinhalaHints) {
			return Sinhala
		}
		if containsAny(tokens, tamilHints) {
			return Tamil
		}
	}
	return English
}

func containsAny(tokens, words []string) bool {
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

package chatbot

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalize composes the text to NFC and case-folds it so that lexicon
// lookups compare like with like across scripts.
func normalize(text string) string {
	// A Caser carries state and must not be shared between goroutines.
	return strings.TrimSpace(cases.Fold().String(norm.NFC.String(text)))
}

// tokenize splits normalised text into words. Combining marks stay attached
// to their base letters, which Sinhala and Tamil rely on.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r)
	})
}

// utterance is a user message prepared for matching.
type utterance struct {
	raw    string
	text   string
	tokens []string
	padded string
}

func newUtterance(raw string) utterance {
	text := normalize(raw)
	tokens := tokenize(text)
	return utterance{
		raw:    raw,
		text:   text,
		tokens: tokens,
		padded: " " + strings.Join(tokens, " ") + " ",
	}
}

// hasPhrase reports whether the token sequence contains phrase on word boundaries.
func (u utterance) hasPhrase(phrase string) bool {
	return strings.Contains(u.padded, " "+phrase+" ")
}

func isLatin(s string) bool {
	for _, r := range s {
		if r >= utf8.RuneSelf && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

// levenshtein returns the edit distance between a and b, counted in runes.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

const (
	// minFuzzyRunes is the shortest word considered for typo tolerance.
	minFuzzyRunes = 3
	// longWordRunes is where substitutions become safe. Below it a single
	// substituted letter often lands on another word (food, good).
	longWordRunes = 6
)

// similar reports whether a and b are within maxDist edits. Words shorter than
// minFuzzyRunes must match exactly. Short words only tolerate one inserted or
// dropped letter and must share the first letter.
func similar(a, b string, maxDist int) bool {
	if a == b {
		return true
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if maxDist <= 0 || la < minFuzzyRunes || lb < minFuzzyRunes {
		return false
	}
	if la < longWordRunes || lb < longWordRunes {
		ra, _ := utf8.DecodeRuneInString(a)
		rb, _ := utf8.DecodeRuneInString(b)
		return ra == rb && la != lb && levenshtein(a, b) == 1
	}
	return levenshtein(a, b) <= maxDist
}

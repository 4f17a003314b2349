package chatbot

import (
	"strings"
	"unicode"
)

var positiveWords = toSet(
	"good", "great", "happy", "love", "like", "awesome", "excellent", "nice", "glad", "thanks",
	"thank", "amazing", "wonderful", "fantastic", "cool", "fun", "excited", "enjoy", "helpful", "best",
	"හොඳයි", "සතුටුයි", "ස්තූතියි", "නියමයි",
	"நல்லது", "மகிழ்ச்சி", "நன்றி", "அருமை",
)

var negativeWords = toSet(
	"bad", "sad", "hate", "tired", "bored", "boring", "stressed", "angry", "terrible", "awful",
	"worst", "upset", "depressed", "lonely", "worried", "anxious", "hungry", "annoyed", "difficult", "hard",
	"නරකයි", "දුකයි", "මහන්සියි", "කම්මැලියි",
	"மோசம்", "சோகம்", "கோபம்", "களைப்பு",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[normalize(w)] = struct{}{}
	}
	return set
}

// AnalyzeSentiment scores text in [-1, 1]: each positive word counts +1, each
// negative word -1, and the sum is scaled down for messages over ten words.
func AnalyzeSentiment(text string) float64 {
	fields := strings.Fields(normalize(text))
	if len(fields) == 0 {
		return 0
	}
	score := 0
	for _, f := range fields {
		word := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if _, ok := positiveWords[word]; ok {
			score++
		}
		if _, ok := negativeWords[word]; ok {
			score--
		}
	}
	scaled := float64(score) / max(float64(len(fields))/10, 1)
	return max(-1, min(1, scaled))
}

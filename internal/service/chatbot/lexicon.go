package chatbot

import "strings"

// Category groups the phrases that signal one kind of request.
type Category string

const (
	CategoryGreeting       Category = "greeting"
	CategoryTired          Category = "mood_tired"
	CategoryHungry         Category = "mood_hungry"
	CategoryBored          Category = "mood_bored"
	CategoryStressed       Category = "mood_stressed"
	CategorySad            Category = "mood_sad"
	CategoryHappy          Category = "mood_happy"
	CategoryAffirmative    Category = "affirmative"
	CategoryFood           Category = "food"
	CategoryLocation       Category = "location"
	CategorySchedule       Category = "schedule"
	CategoryBus            Category = "bus"
	CategoryEvent          Category = "event"
	CategoryModule         Category = "module"
	CategoryAcknowledgment Category = "acknowledgment"
)

// phrases holds the English, Sinhala and Tamil vocabulary per category.
var phrases = map[Category][]string{
	CategoryGreeting: {
		"hi", "hello", "hey", "hiya", "greetings", "good morning", "good afternoon", "good evening",
		"ආයුබෝවන්", "හෙලෝ", "සුබ උදෑසනක්",
		"வணக்கம்", "ஹலோ", "ஹாய்",
	},
	CategoryTired: {
		"tired", "exhausted", "sleepy", "fatigued", "worn out",
		"මහන්සියි", "නිදිමතයි",
		"களைப்பாக", "சோர்வாக", "தூக்கமாக",
	},
	CategoryHungry: {
		"hungry", "starving", "famished",
		"බඩගිනියි",
		"பசிக்கிறது", "பசியாக",
	},
	CategoryBored: {
		"bored", "boring", "nothing to do",
		"කම්මැලියි", "එපා වෙලා",
		"சலிப்பாக", "போர்",
	},
	CategoryStressed: {
		"stressed", "stress", "anxious", "overwhelmed", "worried", "nervous",
		"ආතතියෙන්", "බයයි",
		"மன அழுத்தம்", "பதட்டமாக",
	},
	CategorySad: {
		"sad", "unhappy", "depressed", "lonely", "upset", "down",
		"දුකයි", "තනිකමයි",
		"சோகமாக", "வருத்தமாக",
	},
	CategoryHappy: {
		"happy", "glad", "excited", "awesome", "feeling good",
		"සතුටුයි",
		"மகிழ்ச்சியாக", "சந்தோஷமாக",
	},
	CategoryAffirmative: {
		"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "let's play", "lets play", "play", "y",
		"ඔව්", "හරි",
		"ஆம்", "சரி", "ஆமா",
	},
	CategoryFood: {
		"food", "canteen", "cafeteria", "menu", "meal", "meals", "eat", "lunch", "dinner", "breakfast",
		"කෑම", "ආපනශාලාව", "කැන්ටීන්",
		"உணவு", "சாப்பாடு", "கேன்டீன்", "உணவகம்",
	},
	CategoryLocation: {
		"where", "directions", "direction", "location", "locate", "find", "navigate", "how to get", "take me",
		"කොහෙද", "කොහේද", "යන්නේ කොහොමද",
		"எங்கே", "எங்கு", "வழி",
	},
	CategorySchedule: {
		"schedule", "timetable", "class", "classes", "lecture", "lectures", "my classes",
		"කාලසටහන", "පන්ති", "දේශන",
		"அட்டவணை", "வகுப்பு", "வகுப்புகள்",
	},
	CategoryBus: {
		"bus", "buses", "bus route", "bus routes", "bus timings", "route", "routes",
		"බස්", "බස් රථ",
		"பேருந்து", "பஸ்",
	},
	CategoryEvent: {
		"event", "events", "happening", "activities", "whats on",
		"සිදුවීම්", "උත්සව",
		"நிகழ்வு", "நிகழ்வுகள்", "விழா",
	},
	CategoryModule: {
		"module", "modules", "subject", "subjects", "courses", "my modules",
		"විෂය", "විෂයයන්",
		"பாடம்", "பாடங்கள்",
	},
	CategoryAcknowledgment: {
		"thanks", "thank you", "thx", "ty", "ok", "okay", "cool", "got it", "great", "appreciate it", "nice",
		"yes", "yeah", "yep", "yup", "sure",
		"ස්තූතියි", "හොඳයි", "ඔව්",
		"நன்றி", "சரி", "ஆம்",
	},
}

// fuzzyCategories tolerate typos within the keyword distance. Mood and
// greeting words stay exact because short English words collide easily.
var fuzzyCategories = map[Category]bool{
	CategoryFood:     true,
	CategorySchedule: true,
	CategoryBus:      true,
	CategoryEvent:    true,
	CategoryModule:   true,
}

// fuzzyExclusions are everyday words one letter away from a short keyword.
var fuzzyExclusions = map[string]bool{
	"busy": true, "bust": true, "even": true, "men": true,
	"launch": true, "flood": true, "rout": true, "heat": true,
}

// topicBuckets are loose substrings used to ask a clarifying question when
// nothing else matched.
var topicBuckets = []struct {
	Category Category
	Hints    []string
}{
	{CategoryFood, []string{"snack", "coffee", "drink", "rice", "curry", "juice"}},
	{CategoryBus, []string{"transport", "shuttle", "ride", "travel", "commute"}},
	{CategoryEvent, []string{"fest", "concert", "workshop", "seminar", "party"}},
	{CategorySchedule, []string{"exam", "semester", "tutorial", "period"}},
	{CategoryLocation, []string{"map", "building", "room", "hall", "office"}},
}

type keyword struct {
	phrase string
	latin  bool
	single bool
}

// Lexicon matches utterances against the per-category vocabulary.
type Lexicon struct {
	entries  map[Category][]keyword
	distance int
}

// NewLexicon builds the lexicon. distance is the maximum edit distance for
// fuzzy keyword matches.
func NewLexicon(distance int) *Lexicon {
	l := &Lexicon{entries: make(map[Category][]keyword, len(phrases)), distance: distance}
	for cat, list := range phrases {
		for _, p := range list {
			p = normalize(p)
			l.entries[cat] = append(l.entries[cat], keyword{
				phrase: p,
				latin:  isLatin(p),
				single: !strings.Contains(p, " "),
			})
		}
	}
	return l
}

// Matches reports whether any phrase of the category occurs in u.
func (l *Lexicon) Matches(cat Category, u utterance) bool {
	fuzzy := fuzzyCategories[cat]
	for _, kw := range l.entries[cat] {
		if !kw.latin {
			// Sinhala and Tamil attach suffixes, so substring containment is the word match.
			if strings.Contains(u.text, kw.phrase) {
				return true
			}
			continue
		}
		if !kw.single {
			if u.hasPhrase(strings.Join(tokenize(kw.phrase), " ")) {
				return true
			}
			continue
		}
		for _, tok := range u.tokens {
			if tok == kw.phrase || (fuzzy && !fuzzyExclusions[tok] && similar(tok, kw.phrase, l.distance)) {
				return true
			}
		}
	}
	return false
}

// Bucket returns the first loose topic hint contained in u.
func (l *Lexicon) Bucket(u utterance) (Category, bool) {
	for _, b := range topicBuckets {
		for _, hint := range b.Hints {
			if strings.Contains(u.text, hint) {
				return b.Category, true
			}
		}
	}
	return "", false
}

package chatbot

import (
	"strings"
)

// Intent is the classified purpose of one user message.
type Intent string

const (
	IntentContinueCanteenStep1 Intent = "continue_canteen_step1"
	IntentContinueCanteenStep2 Intent = "continue_canteen_step2"
	IntentStartCanteenFlow     Intent = "start_canteen_flow"
	IntentGreeting             Intent = "greeting"
	IntentMoodTired            Intent = "mood_tired"
	IntentMoodHungry           Intent = "mood_hungry"
	IntentMoodBored            Intent = "mood_bored"
	IntentMoodStressed         Intent = "mood_stressed"
	IntentMoodSad              Intent = "mood_sad"
	IntentMoodHappy            Intent = "mood_happy"
	IntentGameConfirmation     Intent = "game_confirmation"
	IntentLocationQuery        Intent = "location_query"
	IntentExactLocationName    Intent = "exact_location_name"
	IntentScheduleQuery        Intent = "schedule_query"
	IntentBusQuery             Intent = "bus_query"
	IntentEventQuery           Intent = "event_query"
	IntentModuleQuery          Intent = "module_query"
	IntentAcknowledgment       Intent = "acknowledgment"
	IntentFallback             Intent = "fallback"
)

// Location is a campus place the client can navigate to.
type Location struct {
	Name    string
	Aliases []string
}

// DefaultLocations is used when no locations are configured.
var DefaultLocations = []Location{
	{Name: "Library", Aliases: []string{"පුස්තකාලය", "நூலகம்"}},
	{Name: "Auditorium", Aliases: []string{"ශ්‍රවණාගාරය", "அரங்கம்"}},
	{Name: "Gymnasium", Aliases: []string{"gym", "ව්‍යායාම ශාලාව", "உடற்பயிற்சி கூடம்"}},
	{Name: "Admin Building", Aliases: []string{"administration", "පරිපාලන ගොඩනැගිල්ල", "நிர்வாக கட்டிடம்"}},
	{Name: "Medical Center", Aliases: []string{"medical centre", "clinic", "වෛද්‍ය මධ්‍යස්ථානය", "மருத்துவ மையம்"}},
	{Name: "Student Center", Aliases: []string{"student centre", "ශිෂ්‍ය මධ්‍යස්ථානය", "மாணவர் மையம்"}},
	{Name: "Car Park", Aliases: []string{"parking", "වාහන නැවතුම්පොළ", "வாகன நிறுத்துமிடம்"}},
}

// Classification is the outcome of classifying one message.
type Classification struct {
	Intent Intent
	// Location is the canonical name of the place asked about, if any.
	Location string
}

type locationName struct {
	canonical string
	form      string
	tokens    []string
	latin     bool
}

// rule is one detector in the precedence list.
type rule struct {
	intent Intent
	match  func(u utterance, st State) (Classification, bool)
}

// Classifier resolves messages to intents by running an ordered rule list;
// the first rule that matches wins.
type Classifier struct {
	lexicon          *Lexicon
	locations        []locationName
	locationDistance int
	rules            []rule
}

// NewClassifier builds a classifier over the given lexicon and campus locations.
func NewClassifier(lexicon *Lexicon, locations []Location, locationDistance int) *Classifier {
	c := &Classifier{lexicon: lexicon, locationDistance: locationDistance}
	for _, loc := range locations {
		for _, form := range append([]string{loc.Name}, loc.Aliases...) {
			n := normalize(form)
			if n == "" {
				continue
			}
			c.locations = append(c.locations, locationName{
				canonical: loc.Name,
				form:      n,
				tokens:    tokenize(n),
				latin:     isLatin(n),
			})
		}
	}

	keywordRule := func(intent Intent, cat Category) rule {
		return rule{intent: intent, match: func(u utterance, _ State) (Classification, bool) {
			return Classification{Intent: intent}, c.lexicon.Matches(cat, u)
		}}
	}

	c.rules = []rule{
		{IntentContinueCanteenStep1, func(_ utterance, st State) (Classification, bool) {
			return Classification{Intent: IntentContinueCanteenStep1}, st.Step == StepAwaitingCanteen
		}},
		{IntentContinueCanteenStep2, func(_ utterance, st State) (Classification, bool) {
			return Classification{Intent: IntentContinueCanteenStep2}, st.Step == StepAwaitingMeal
		}},
		keywordRule(IntentStartCanteenFlow, CategoryFood),
		keywordRule(IntentGreeting, CategoryGreeting),
		keywordRule(IntentMoodTired, CategoryTired),
		keywordRule(IntentMoodHungry, CategoryHungry),
		keywordRule(IntentMoodBored, CategoryBored),
		keywordRule(IntentMoodStressed, CategoryStressed),
		keywordRule(IntentMoodSad, CategorySad),
		keywordRule(IntentMoodHappy, CategoryHappy),
		{IntentGameConfirmation, func(u utterance, st State) (Classification, bool) {
			return Classification{Intent: IntentGameConfirmation}, st.Offer != OfferNone && c.lexicon.Matches(CategoryAffirmative, u)
		}},
		{IntentLocationQuery, c.locationWithKeyword},
		{IntentExactLocationName, c.exactLocation},
		keywordRule(IntentScheduleQuery, CategorySchedule),
		keywordRule(IntentBusQuery, CategoryBus),
		keywordRule(IntentEventQuery, CategoryEvent),
		keywordRule(IntentModuleQuery, CategoryModule),
		// A location keyword without a recognisable place asks for the list of places.
		keywordRule(IntentLocationQuery, CategoryLocation),
		keywordRule(IntentAcknowledgment, CategoryAcknowledgment),
	}
	return c
}

// Classify returns the intent of text given the principal's current state.
// While a canteen dialogue is open every message belongs to it.
func (c *Classifier) Classify(text string, st State) Classification {
	return c.classify(newUtterance(text), st)
}

func (c *Classifier) classify(u utterance, st State) Classification {
	for _, r := range c.rules {
		if res, ok := r.match(u, st); ok {
			return res
		}
	}
	return Classification{Intent: IntentFallback}
}

// Matches lists every intent whose rule fires for text, in precedence order.
// It only feeds diagnostics; Classify alone decides the reply.
func (c *Classifier) Matches(text string, st State) []Intent {
	return c.matches(newUtterance(text), st)
}

func (c *Classifier) matches(u utterance, st State) []Intent {
	var out []Intent
	for _, r := range c.rules {
		if _, ok := r.match(u, st); ok {
			if len(out) > 0 && out[len(out)-1] == r.intent {
				continue
			}
			out = append(out, r.intent)
		}
	}
	return out
}

// locationWithKeyword matches "where is the library" style questions.
func (c *Classifier) locationWithKeyword(u utterance, _ State) (Classification, bool) {
	if !c.lexicon.Matches(CategoryLocation, u) {
		return Classification{}, false
	}
	if name, ok := c.findLocation(u); ok {
		return Classification{Intent: IntentLocationQuery, Location: name}, true
	}
	return Classification{}, false
}

// exactLocation matches a message that is just a place name, typos included.
func (c *Classifier) exactLocation(u utterance, _ State) (Classification, bool) {
	text := strings.Join(dropFillers(u.tokens), " ")
	if text == "" {
		return Classification{}, false
	}
	best, bestDist := "", c.locationDistance+1
	for _, loc := range c.locations {
		if !loc.latin {
			if strings.TrimSpace(u.text) == loc.form {
				return Classification{Intent: IntentExactLocationName, Location: loc.canonical}, true
			}
			continue
		}
		form := strings.Join(loc.tokens, " ")
		if text == form {
			return Classification{Intent: IntentExactLocationName, Location: loc.canonical}, true
		}
		if !similar(text, form, c.locationDistance) {
			continue
		}
		if d := levenshtein(text, form); d < bestDist {
			best, bestDist = loc.canonical, d
		}
	}
	if best == "" {
		return Classification{}, false
	}
	return Classification{Intent: IntentExactLocationName, Location: best}, true
}

// findLocation looks for any known place inside the message, first exactly and
// then by comparing same-length word windows within the location distance.
func (c *Classifier) findLocation(u utterance) (string, bool) {
	for _, loc := range c.locations {
		if loc.latin {
			if u.hasPhrase(strings.Join(loc.tokens, " ")) {
				return loc.canonical, true
			}
		} else if strings.Contains(u.text, loc.form) {
			return loc.canonical, true
		}
	}

	best, bestDist := "", c.locationDistance+1
	for _, loc := range c.locations {
		if !loc.latin {
			continue
		}
		n := len(loc.tokens)
		form := strings.Join(loc.tokens, " ")
		for i := 0; i+n <= len(u.tokens); i++ {
			window := strings.Join(u.tokens[i:i+n], " ")
			if !similar(window, form, c.locationDistance) {
				continue
			}
			if d := levenshtein(window, form); d < bestDist {
				best, bestDist = loc.canonical, d
			}
		}
	}
	return best, best != ""
}

var fillers = map[string]bool{"the": true, "a": true, "an": true, "to": true, "please": true}

func dropFillers(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !fillers[t] {
			out = append(out, t)
		}
	}
	return out
}

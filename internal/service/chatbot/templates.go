package chatbot

import "fmt"

// Template keys.
const (
	tplGreeting           = "greeting"
	tplAcknowledgment     = "acknowledgment"
	tplLocationHelp       = "location_help"
	tplStudentOnly        = "student_only"
	tplDegreeNotSet       = "degree_not_set"
	tplNoClassesToday     = "no_classes_today"
	tplNoMoreClasses      = "no_more_classes"
	tplScheduleHeader     = "schedule_header"
	tplScheduleLine       = "schedule_line"
	tplNoBusRoutes        = "no_bus_routes"
	tplBusHeader          = "bus_header"
	tplBusLine            = "bus_line"
	tplNoEvents           = "no_events"
	tplEventsHeader       = "events_header"
	tplEventLine          = "event_line"
	tplNoModules          = "no_modules"
	tplCanteenPick        = "canteen_pick"
	tplNoCanteens         = "no_canteens"
	tplCanteenInvalid     = "canteen_invalid"
	tplCanteenAskMeal     = "canteen_ask_meal"
	tplMealInvalid        = "meal_invalid"
	tplMealEmpty          = "meal_empty"
	tplMenuHeader         = "menu_header"
	tplCanteenMissing     = "canteen_missing"
	tplFallback           = "fallback"
	tplFallbackEscalation = "fallback_escalation"
	tplErrorSchedule      = "error_fetching_schedule"
	tplErrorBus           = "error_fetching_bus"
	tplErrorEvents        = "error_fetching_events"
	tplErrorGeneric       = "error_generic"
	tplClarifyPrefix      = "clarify_"
	tplMealPrefix         = "meal_"
)

// templates holds the reply phrasings per language. Keys with several entries
// are interchangeable; any of them may be chosen.
var templates = map[Language]map[string][]string{
	English: {
		tplGreeting: {
			"Hi there! How can I help you today?",
			"Hello! Ask me about classes, buses, events or the canteen.",
			"Hey! What would you like to know about campus?",
		},
		"mood_tired": {
			"Sounds like a long day. Want to take a short break with a quick game?",
			"Rest matters. How about a quick game to recharge?",
		},
		"mood_hungry": {
			"Let's get you some food! Type \"food\" to browse the canteen menus.",
			"Hungry? Say \"canteen\" and I'll show you what's being served.",
		},
		"mood_bored": {
			"Bored? I've got a quick game for you. Want to play?",
			"How about a game to liven things up?",
		},
		"mood_stressed": {
			"Take a deep breath. A short game can help you unwind. Want to try one?",
			"Stress happens to everyone. Would a quick game help you relax?",
		},
		"mood_sad": {
			"I'm sorry you're feeling down. Would you like to try the mood insights game?",
			"That sounds hard. Want to explore how you're feeling with a short insights game?",
		},
		"mood_happy": {
			"That's great to hear! Keep smiling.",
			"Love the energy! Anything I can help you with?",
		},
		tplAcknowledgment: {
			"You're welcome!",
			"Happy to help!",
			"Anytime! Let me know if you need anything else.",
		},
		tplLocationHelp:   {"I can guide you to these places: %s. Which one are you looking for?"},
		tplStudentOnly:    {"Class schedules and modules are only available to students."},
		tplDegreeNotSet:   {"Your degree is not set. Please update your profile to see your classes."},
		tplNoClassesToday: {"There are no %s classes scheduled for today."},
		tplNoMoreClasses:  {"There are no more %s classes for today."},
		tplScheduleHeader: {"Here are your remaining %s classes for today:"},
		tplScheduleLine:   {"%s–%s: %s (%s) with %s"},
		tplNoBusRoutes:    {"No bus routes are available right now."},
		tplBusHeader:      {"Here are the bus routes:"},
		tplBusLine:        {"Route: %s\nDuration: %s\nSchedule: %s"},
		tplNoEvents:       {"There are no upcoming events."},
		tplEventsHeader:   {"Upcoming events:"},
		tplEventLine:      {"%s\nDate: %s\nTime: %s\nLocation: %s"},
		tplNoModules:      {"No modules were found for %s."},
		tplCanteenPick:    {"Which canteen would you like? Choose from: %s"},
		tplNoCanteens:     {"No canteens are available right now."},
		tplCanteenInvalid: {"\"%s\" is not a canteen I know. Please choose from: %s"},
		tplCanteenAskMeal: {"Which meal at %s would you like to see: breakfast, lunch or dinner?"},
		tplMealInvalid:    {"\"%s\" is not a meal. Please say breakfast, lunch or dinner."},
		tplMealEmpty:      {"%s at %s has nothing on the menu yet."},
		tplMenuHeader:     {"%s at %s:"},
		tplCanteenMissing: {"%s is no longer available. Please start again."},
		tplFallback: {
			"Sorry, I didn't understand that. Could you rephrase?",
			"I'm not sure what you mean. Can you say it another way?",
		},
		tplFallbackEscalation: {"I'm still not following. You can ask me:\n- Show my schedule\n- Bus timings\n- Upcoming events\n- Canteen menu\n- Where is the library"},
		"clarify_food":        {"Are you looking for food? Say \"canteen\" to see the menus."},
		"clarify_bus":         {"Do you need transport? Ask me about bus routes."},
		"clarify_event":       {"Interested in something happening on campus? Ask me about events."},
		"clarify_schedule":    {"Is this about your classes? Ask me to show your schedule."},
		"clarify_location":    {"Looking for a place? Try asking \"where is the library\"."},
		tplErrorSchedule:      {"Sorry, I couldn't fetch your schedule. Please try again."},
		tplErrorBus:           {"Sorry, I couldn't fetch the bus routes. Please try again."},
		tplErrorEvents:        {"Sorry, I couldn't fetch the events. Please try again."},
		tplErrorGeneric:       {"Something went wrong. Please try again."},
		"meal_breakfast":      {"Breakfast"},
		"meal_lunch":          {"Lunch"},
		"meal_dinner":         {"Dinner"},
	},
	Sinhala: {
		tplGreeting: {
			"ආයුබෝවන්! මට ඔබට උදව් කළ හැක්කේ කෙසේද?",
			"හෙලෝ! පන්ති, බස්, උත්සව හෝ කැන්ටීන් ගැන මගෙන් අහන්න.",
		},
		"mood_tired":          {"දිගු දවසක් වගේ. පොඩි විවේකයකට කෙටි ක්‍රීඩාවක් කරමුද?"},
		"mood_hungry":         {"කෑම හොයමු! කැන්ටීන් මෙනු බලන්න \"කෑම\" ලෙස ටයිප් කරන්න."},
		"mood_bored":          {"කම්මැලිද? ඔබට කෙටි ක්‍රීඩාවක් තියෙනවා. සෙල්ලම් කරමුද?"},
		"mood_stressed":       {"ගැඹුරු හුස්මක් ගන්න. කෙටි ක්‍රීඩාවක් උදව් වේවි. උත්සාහ කරමුද?"},
		"mood_sad":            {"ඔබට දුක නම් මට කනගාටුයි. මනෝභාව ක්‍රීඩාව උත්සාහ කරමුද?"},
		"mood_happy":          {"ඒක අහන්න ලැබීම සතුටක්!"},
		tplAcknowledgment:     {"සාදරයෙන් පිළිගනිමු!", "උදව් කරන්න ලැබීම සතුටක්!"},
		tplLocationHelp:       {"මට ඔබව මෙම ස්ථාන වෙත යොමු කළ හැක: %s. ඔබ සොයන්නේ කුමක්ද?"},
		tplStudentOnly:        {"පන්ති කාලසටහන් සහ විෂයයන් සිසුන්ට පමණි."},
		tplDegreeNotSet:       {"ඔබේ උපාධිය සකසා නැත. ඔබේ පැතිකඩ යාවත්කාලීන කරන්න."},
		tplNoClassesToday:     {"අද %s පන්ති කිසිවක් නැත."},
		tplNoMoreClasses:      {"අද තවත් %s පන්ති නැත."},
		tplScheduleHeader:     {"අද ඉතිරි %s පන්ති:"},
		tplScheduleLine:       {"%s–%s: %s (%s) - %s"},
		tplNoBusRoutes:        {"දැනට බස් මාර්ග නොමැත."},
		tplBusHeader:          {"බස් මාර්ග:"},
		tplBusLine:            {"මාර්ගය: %s\nකාලය: %s\nවේලාවන්: %s"},
		tplNoEvents:           {"ඉදිරි උත්සව නොමැත."},
		tplEventsHeader:       {"ඉදිරි උත්සව:"},
		tplEventLine:          {"%s\nදිනය: %s\nවේලාව: %s\nස්ථානය: %s"},
		tplNoModules:          {"%s සඳහා විෂයයන් හමු නොවීය."},
		tplCanteenPick:        {"ඔබට කුමන කැන්ටීනද? තෝරන්න: %s"},
		tplNoCanteens:         {"දැනට කැන්ටීන් නොමැත."},
		tplCanteenInvalid:     {"\"%s\" කැන්ටීනක් නොවේ. මෙයින් තෝරන්න: %s"},
		tplCanteenAskMeal:     {"%s හි කුමන ආහාර වේලද? උදේ, දවල් හෝ රෑ?"},
		tplMealInvalid:        {"\"%s\" ආහාර වේලක් නොවේ. උදේ, දවල් හෝ රෑ කියන්න."},
		tplMealEmpty:          {"%s (%s) මෙනුවේ තවම කිසිවක් නැත."},
		tplMenuHeader:         {"%s - %s:"},
		tplCanteenMissing:     {"%s තවදුරටත් නොමැත. කරුණාකර නැවත අරඹන්න."},
		tplFallback:           {"සමාවන්න, මට තේරුණේ නැහැ. නැවත කියන්න පුළුවන්ද?"},
		tplFallbackEscalation: {"මට තවමත් තේරෙන්නේ නැහැ. ඔබට අහන්න පුළුවන්:\n- මගේ කාලසටහන\n- බස් වේලාවන්\n- ඉදිරි උත්සව\n- කැන්ටීන් මෙනුව\n- පුස්තකාලය කොහෙද"},
		"clarify_food":        {"ඔබ කෑම සොයනවාද? මෙනු බලන්න \"කැන්ටීන්\" කියන්න."},
		"clarify_bus":         {"ප්‍රවාහනය අවශ්‍යද? බස් මාර්ග ගැන අහන්න."},
		"clarify_event":       {"කැම්පස් උත්සව ගැන දැනගන්න කැමතිද? උත්සව ගැන අහන්න."},
		"clarify_schedule":    {"මෙය ඔබේ පන්ති ගැනද? කාලසටහන පෙන්වන්න කියන්න."},
		"clarify_location":    {"ස්ථානයක් සොයනවාද? \"පුස්තකාලය කොහෙද\" ලෙස අහන්න."},
		tplErrorSchedule:      {"සමාවන්න, කාලසටහන ලබාගත නොහැකි විය. නැවත උත්සාහ කරන්න."},
		tplErrorBus:           {"සමාවන්න, බස් මාර්ග ලබාගත නොහැකි විය. නැවත උත්සාහ කරන්න."},
		tplErrorEvents:        {"සමාවන්න, උත්සව ලබාගත නොහැකි විය. නැවත උත්සාහ කරන්න."},
		tplErrorGeneric:       {"දෝෂයක් සිදුවිය. නැවත උත්සාහ කරන්න."},
		"meal_breakfast":      {"උදේ කෑම"},
		"meal_lunch":          {"දවල් කෑම"},
		"meal_dinner":         {"රෑ කෑම"},
	},
	Tamil: {
		tplGreeting: {
			"வணக்கம்! இன்று நான் உங்களுக்கு எப்படி உதவலாம்?",
			"ஹலோ! வகுப்புகள், பேருந்துகள், நிகழ்வுகள் அல்லது கேன்டீன் பற்றி கேளுங்கள்.",
		},
		"mood_tired":          {"நீண்ட நாள் போல் தெரிகிறது. ஒரு சிறிய விளையாட்டு விளையாடலாமா?"},
		"mood_hungry":         {"உணவு தேடலாம்! கேன்டீன் மெனுவைப் பார்க்க \"உணவு\" என்று தட்டச்சு செய்யுங்கள்."},
		"mood_bored":          {"சலிப்பாக இருக்கிறதா? ஒரு சிறிய விளையாட்டு உள்ளது. விளையாடலாமா?"},
		"mood_stressed":       {"ஆழமாக மூச்சு விடுங்கள். ஒரு சிறிய விளையாட்டு உதவும். முயற்சிக்கலாமா?"},
		"mood_sad":            {"நீங்கள் வருத்தமாக இருப்பதற்கு வருந்துகிறேன். மனநிலை விளையாட்டை முயற்சிக்கலாமா?"},
		"mood_happy":          {"கேட்க மகிழ்ச்சி!"},
		tplAcknowledgment:     {"பரவாயில்லை!", "உதவ மகிழ்ச்சி!"},
		tplLocationHelp:       {"இந்த இடங்களுக்கு நான் வழிகாட்ட முடியும்: %s. எதைத் தேடுகிறீர்கள்?"},
		tplStudentOnly:        {"வகுப்பு அட்டவணைகள் மற்றும் பாடங்கள் மாணவர்களுக்கு மட்டுமே."},
		tplDegreeNotSet:       {"உங்கள் பட்டப்படிப்பு அமைக்கப்படவில்லை. உங்கள் சுயவிவரத்தைப் புதுப்பிக்கவும்."},
		tplNoClassesToday:     {"இன்று %s வகுப்புகள் எதுவும் இல்லை."},
		tplNoMoreClasses:      {"இன்று மேலும் %s வகுப்புகள் இல்லை."},
		tplScheduleHeader:     {"இன்றைய மீதமுள்ள %s வகுப்புகள்:"},
		tplScheduleLine:       {"%s–%s: %s (%s) - %s"},
		tplNoBusRoutes:        {"தற்போது பேருந்து வழித்தடங்கள் இல்லை."},
		tplBusHeader:          {"பேருந்து வழித்தடங்கள்:"},
		tplBusLine:            {"வழித்தடம்: %s\nநேரம்: %s\nஅட்டவணை: %s"},
		tplNoEvents:           {"வரவிருக்கும் நிகழ்வுகள் இல்லை."},
		tplEventsHeader:       {"வரவிருக்கும் நிகழ்வுகள்:"},
		tplEventLine:          {"%s\nதேதி: %s\nநேரம்: %s\nஇடம்: %s"},
		tplNoModules:          {"%s க்கான பாடங்கள் இல்லை."},
		tplCanteenPick:        {"எந்த கேன்டீன் வேண்டும்? தேர்வு செய்யுங்கள்: %s"},
		tplNoCanteens:         {"தற்போது கேன்டீன்கள் இல்லை."},
		tplCanteenInvalid:     {"\"%s\" என்ற கேன்டீன் இல்லை. இவற்றிலிருந்து தேர்வு செய்யுங்கள்: %s"},
		tplCanteenAskMeal:     {"%s இல் எந்த உணவு வேளை: காலை, மதியம் அல்லது இரவு?"},
		tplMealInvalid:        {"\"%s\" ஒரு உணவு வேளை அல்ல. காலை, மதியம் அல்லது இரவு என்று சொல்லுங்கள்."},
		tplMealEmpty:          {"%s (%s) மெனுவில் இன்னும் எதுவும் இல்லை."},
		tplMenuHeader:         {"%s - %s:"},
		tplCanteenMissing:     {"%s இனி கிடைக்காது. மீண்டும் தொடங்குங்கள்."},
		tplFallback:           {"மன்னிக்கவும், எனக்குப் புரியவில்லை. மீண்டும் சொல்ல முடியுமா?"},
		tplFallbackEscalation: {"இன்னும் புரியவில்லை. நீங்கள் கேட்கலாம்:\n- எனது அட்டவணை\n- பேருந்து நேரங்கள்\n- வரவிருக்கும் நிகழ்வுகள்\n- கேன்டீன் மெனு\n- நூலகம் எங்கே"},
		"clarify_food":        {"உணவு தேடுகிறீர்களா? மெனுவைப் பார்க்க \"கேன்டீன்\" என்று சொல்லுங்கள்."},
		"clarify_bus":         {"போக்குவரத்து வேண்டுமா? பேருந்து வழித்தடங்களைப் பற்றி கேளுங்கள்."},
		"clarify_event":       {"வளாக நிகழ்வுகளில் ஆர்வமா? நிகழ்வுகளைப் பற்றி கேளுங்கள்."},
		"clarify_schedule":    {"இது உங்கள் வகுப்புகள் பற்றியதா? அட்டவணையைக் காட்டச் சொல்லுங்கள்."},
		"clarify_location":    {"ஒரு இடத்தைத் தேடுகிறீர்களா? \"நூலகம் எங்கே\" என்று கேளுங்கள்."},
		tplErrorSchedule:      {"மன்னிக்கவும், அட்டவணையைப் பெற முடியவில்லை. மீண்டும் முயற்சிக்கவும்."},
		tplErrorBus:           {"மன்னிக்கவும், பேருந்து வழித்தடங்களைப் பெற முடியவில்லை. மீண்டும் முயற்சிக்கவும்."},
		tplErrorEvents:        {"மன்னிக்கவும், நிகழ்வுகளைப் பெற முடியவில்லை. மீண்டும் முயற்சிக்கவும்."},
		tplErrorGeneric:       {"பிழை ஏற்பட்டது. மீண்டும் முயற்சிக்கவும்."},
		"meal_breakfast":      {"காலை உணவு"},
		"meal_lunch":          {"மதிய உணவு"},
		"meal_dinner":         {"இரவு உணவு"},
	},
}

// phrasebook renders templates for one language.
type phrasebook struct {
	lang Language
	pick func(n int) int
}

// variants returns every phrasing of key, falling back to English.
func (p phrasebook) variants(key string) []string {
	if v := templates[p.lang][key]; len(v) > 0 {
		return v
	}
	return templates[English][key]
}

// say renders one phrasing of key with args.
func (p phrasebook) say(key string, args ...any) string {
	v := p.variants(key)
	if len(v) == 0 {
		return key
	}
	tpl := v[0]
	if len(v) > 1 && p.pick != nil {
		tpl = v[p.pick(len(v))]
	}
	if len(args) == 0 {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}

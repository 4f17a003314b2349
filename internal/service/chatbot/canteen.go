package chatbot

import (
	"errors"
	"strings"

	"campusbot/internal/models"

	"go.uber.org/zap"
)

// mealWords lists every accepted way of naming a meal, in lookup order.
var mealWords = []struct {
	word string
	meal models.Meal
}{
	{"breakfast", models.MealBreakfast},
	{"lunch", models.MealLunch},
	{"dinner", models.MealDinner},
	{"උදේ", models.MealBreakfast},
	{"දවල්", models.MealLunch},
	{"රෑ", models.MealDinner},
	{"රාත්‍රී", models.MealDinner},
	{"காலை", models.MealBreakfast},
	{"மதிய", models.MealLunch},
	{"இரவு", models.MealDinner},
}

// startCanteenFlow opens the dialogue by offering the canteen picker.
func (t *turn) startCanteenFlow() Reply {
	names, err := t.engine.campus.CanteenNames(t.ctx)
	if err != nil {
		t.warn("fetch canteens failed", err)
		return t.say(tplErrorGeneric)
	}
	if len(names) == 0 {
		return t.say(tplNoCanteens)
	}
	t.state.Step = StepAwaitingCanteen
	return Reply{
		Kind:  ReplyCanteenTable,
		Text:  t.book.say(tplCanteenPick, strings.Join(names, ", ")),
		Items: names,
	}
}

// chooseCanteen handles the message sent while a canteen name is expected.
func (t *turn) chooseCanteen() Reply {
	names, err := t.engine.campus.CanteenNames(t.ctx)
	if err != nil {
		t.warn("fetch canteens failed", err)
		t.state.resetFlow()
		return t.say(tplErrorGeneric)
	}
	if len(names) == 0 {
		t.state.resetFlow()
		return t.say(tplNoCanteens)
	}
	name, ok := matchCanteen(t.u, names)
	if !ok {
		return t.say(tplCanteenInvalid, t.u.raw, strings.Join(names, ", "))
	}
	t.state.Step = StepAwaitingMeal
	t.state.Canteen = name
	return t.say(tplCanteenAskMeal, name)
}

// chooseMeal handles the message sent while a meal is expected and renders the menu.
func (t *turn) chooseMeal() Reply {
	meal, ok := matchMeal(t.u)
	if !ok {
		return t.say(tplMealInvalid, t.u.raw)
	}
	canteen := t.state.Canteen
	t.state.Meal = string(meal)
	defer t.state.resetFlow()

	menu, err := t.engine.campus.CanteenMenu(t.ctx, canteen)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			t.engine.logger.Info("canteen vanished mid dialogue",
				zap.Int64("user_id", t.principal.ID), zap.String("canteen", canteen))
			return t.say(tplCanteenMissing, canteen)
		}
		t.warn("fetch canteen menu failed", err)
		return t.say(tplErrorGeneric)
	}

	mealName := t.book.say(tplMealPrefix + string(meal))
	dishes := menu.Meals.Dishes(meal)
	if len(dishes) == 0 {
		return t.say(tplMealEmpty, mealName, canteen)
	}
	lines := []string{t.book.say(tplMenuHeader, mealName, canteen)}
	for _, dish := range dishes {
		lines = append(lines, "- "+dish)
	}
	return textReply(strings.Join(lines, "\n"))
}

// matchCanteen finds the canteen the user named, exactly, as a phrase inside
// the message, or as the closest name within two edits.
func matchCanteen(u utterance, names []string) (string, bool) {
	text := strings.Join(u.tokens, " ")
	for _, name := range names {
		if text == strings.Join(tokenize(normalize(name)), " ") {
			return name, true
		}
	}
	for _, name := range names {
		if u.hasPhrase(strings.Join(tokenize(normalize(name)), " ")) {
			return name, true
		}
	}
	best, bestDist := "", 3
	for _, name := range names {
		form := strings.Join(tokenize(normalize(name)), " ")
		if !similar(text, form, 2) {
			continue
		}
		if d := levenshtein(text, form); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best, best != ""
}

// matchMeal finds a meal word in the message. English meal names tolerate one typo.
func matchMeal(u utterance) (models.Meal, bool) {
	for _, mw := range mealWords {
		if isLatin(mw.word) {
			if u.hasPhrase(mw.word) {
				return mw.meal, true
			}
		} else if strings.Contains(u.text, mw.word) {
			return mw.meal, true
		}
	}
	for _, tok := range u.tokens {
		if len(tok) < 4 {
			continue
		}
		for _, meal := range models.Meals {
			if levenshtein(tok, string(meal)) <= 1 {
				return meal, true
			}
		}
	}
	return "", false
}

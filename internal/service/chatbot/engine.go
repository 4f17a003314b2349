// Package chatbot resolves campus chat messages to replies with a fixed,
// ordered set of keyword rules, a per-user canteen dialogue and localized
// templates in English, Sinhala and Tamil.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"campusbot/internal/models"

	"go.uber.org/zap"
)

// ErrEmptyMessage rejects blank input before classification.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Campus is the read side of the campus catalogue.
type Campus interface {
	SchedulesForDay(ctx context.Context, degree models.Degree, day time.Weekday) ([]models.ScheduleEntry, error)
	BusRoutes(ctx context.Context) ([]models.BusRoute, error)
	// Events are returned in ascending date order.
	Events(ctx context.Context) ([]models.Event, error)
	CanteenNames(ctx context.Context) ([]string, error)
	// CanteenMenu returns models.ErrNotFound for unknown canteens.
	CanteenMenu(ctx context.Context, name string) (*models.CanteenMenu, error)
	Modules(ctx context.Context, degree models.Degree) ([]string, error)
}

// Conversations persists chat messages.
type Conversations interface {
	AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error)
}

// Options tune an Engine. Zero values fall back to defaults.
type Options struct {
	FallbackThreshold    int
	KeywordDistance      int
	LocationDistance     int
	Locations            []Location
	TransliterationHints bool
	// Now and Pick replace the clock and the template chooser, mostly for tests.
	Now  func() time.Time
	Pick func(n int) int
}

// Result is the outcome of one chat turn.
type Result struct {
	Reply       Reply
	Intent      Intent
	Language    Language
	Sentiment   float64
	UserMessage *models.Message
	BotMessage  *models.Message
}

// Engine answers chat turns. Callers must not run two turns for the same
// principal concurrently; turns for different principals are independent.
type Engine struct {
	campus        Campus
	conversations Conversations
	states        StateStore
	classifier    *Classifier
	lexicon       *Lexicon
	detector      *Detector
	locations     []string
	threshold     int
	now           func() time.Time
	pick          func(n int) int
	logger        *zap.Logger
}

// NewEngine wires the engine to its collaborators.
func NewEngine(campus Campus, conversations Conversations, states StateStore, logger *zap.Logger, opts Options) *Engine {
	if opts.FallbackThreshold <= 0 {
		opts.FallbackThreshold = 2
	}
	if opts.KeywordDistance <= 0 {
		opts.KeywordDistance = 1
	}
	if opts.LocationDistance <= 0 {
		opts.LocationDistance = 2
	}
	if len(opts.Locations) == 0 {
		opts.Locations = DefaultLocations
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	lexicon := NewLexicon(opts.KeywordDistance)
	names := make([]string, 0, len(opts.Locations))
	for _, loc := range opts.Locations {
		names = append(names, loc.Name)
	}
	return &Engine{
		campus:        campus,
		conversations: conversations,
		states:        states,
		classifier:    NewClassifier(lexicon, opts.Locations, opts.LocationDistance),
		lexicon:       lexicon,
		detector:      NewDetector(opts.TransliterationHints),
		locations:     names,
		threshold:     opts.FallbackThreshold,
		now:           opts.Now,
		pick:          opts.Pick,
		logger:        logger.Named("chatbot"),
	}
}

// DetectLanguage exposes the engine's language detection.
func (e *Engine) DetectLanguage(text, hint string) Language {
	return e.detector.Detect(text, hint)
}

// HandleTurn classifies text for the principal, composes the reply, updates the
// principal's dialogue state and stores the user and bot messages.
func (e *Engine) HandleTurn(ctx context.Context, principal models.Principal, text, languageHint string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if principal.ID <= 0 {
		return nil, errors.New("principal id is required")
	}

	lang := e.detector.Detect(text, languageHint)
	state, err := e.states.Load(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}

	u := newUtterance(text)
	class := e.classifier.classify(u, state)
	if ce := e.logger.Check(zap.DebugLevel, "classified message"); ce != nil {
		ce.Write(
			zap.Int64("user_id", principal.ID),
			zap.String("intent", string(class.Intent)),
			zap.Any("matches", e.classifier.matches(u, state)),
		)
	}

	t := &turn{
		engine:    e,
		ctx:       ctx,
		principal: principal,
		u:         u,
		book:      phrasebook{lang: lang, pick: e.pick},
		state:     state,
	}
	reply := t.compose(class)
	t.state.Offer = reply.Offer

	// The turn is committed from here on even if the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)
	sentiment := AnalyzeSentiment(text)
	userMsg, err := e.conversations.AppendMessage(persistCtx, models.Message{
		UserID:    principal.ID,
		Content:   text,
		IsUser:    true,
		Sentiment: sentiment,
	})
	if err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}
	botMsg, err := e.conversations.AppendMessage(persistCtx, models.Message{
		UserID:  principal.ID,
		Content: reply.Wire(),
		IsUser:  false,
	})
	if err != nil {
		return nil, fmt.Errorf("store bot message: %w", err)
	}
	// State advances only once both messages are stored.
	if err := e.states.Save(persistCtx, principal.ID, t.state); err != nil {
		return nil, fmt.Errorf("save conversation state: %w", err)
	}

	e.logger.Info("chat turn",
		zap.Int64("user_id", principal.ID),
		zap.String("language", string(lang)),
		zap.String("intent", string(class.Intent)),
		zap.String("reply_kind", string(reply.Kind)),
		zap.Int("step", int(t.state.Step)),
	)

	return &Result{
		Reply:       reply,
		Intent:      class.Intent,
		Language:    lang,
		Sentiment:   sentiment,
		UserMessage: userMsg,
		BotMessage:  botMsg,
	}, nil
}

// ResetState drops the principal's dialogue state and fallback counter.
func (e *Engine) ResetState(ctx context.Context, userID int64) error {
	return e.states.Reset(ctx, userID)
}

// turn carries the per-message context through composition.
type turn struct {
	engine    *Engine
	ctx       context.Context
	principal models.Principal
	u         utterance
	book      phrasebook
	state     State
}

func (t *turn) say(key string, args ...any) Reply {
	return textReply(t.book.say(key, args...))
}

func (t *turn) compose(class Classification) Reply {
	if class.Intent != IntentFallback {
		t.state.Fallbacks = 0
	}

	switch class.Intent {
	case IntentContinueCanteenStep1:
		return t.chooseCanteen()
	case IntentContinueCanteenStep2:
		return t.chooseMeal()
	case IntentStartCanteenFlow:
		return t.startCanteenFlow()
	case IntentGreeting:
		return t.say(tplGreeting)
	case IntentMoodTired, IntentMoodBored, IntentMoodStressed:
		r := t.say(string(class.Intent))
		r.Offer = OfferGame
		return r
	case IntentMoodSad:
		r := t.say(string(class.Intent))
		r.Offer = OfferInsights
		return r
	case IntentMoodHungry, IntentMoodHappy:
		return t.say(string(class.Intent))
	case IntentGameConfirmation:
		if t.state.Offer == OfferInsights {
			return Reply{Kind: ReplyInsightsGame}
		}
		return Reply{Kind: ReplyGame}
	case IntentLocationQuery, IntentExactLocationName:
		if class.Location != "" {
			return Reply{Kind: ReplyLocation, Target: class.Location}
		}
		return t.say(tplLocationHelp, strings.Join(t.engine.locations, ", "))
	case IntentScheduleQuery:
		return t.schedule()
	case IntentBusQuery:
		return t.busRoutes()
	case IntentEventQuery:
		return t.events()
	case IntentModuleQuery:
		return t.modules()
	case IntentAcknowledgment:
		return t.say(tplAcknowledgment)
	default:
		return t.fallback()
	}
}

// studentGate returns the rejection for principals who cannot see course data.
func (t *turn) studentGate() (Reply, bool) {
	if t.principal.Role != models.RoleStudent {
		return t.say(tplStudentOnly), false
	}
	if t.principal.Degree == "" {
		return t.say(tplDegreeNotSet), false
	}
	return Reply{}, true
}

func (t *turn) warn(msg string, err error) {
	t.engine.logger.Warn(msg, zap.Int64("user_id", t.principal.ID), zap.Error(err))
}

func (t *turn) schedule() Reply {
	if r, ok := t.studentGate(); !ok {
		return r
	}
	degree := t.principal.Degree
	now := t.engine.now()
	entries, err := t.engine.campus.SchedulesForDay(t.ctx, degree, now.Weekday())
	if err != nil {
		t.warn("fetch schedule failed", err)
		return t.say(tplErrorSchedule)
	}
	if len(entries) == 0 {
		return t.say(tplNoClassesToday, degree)
	}

	clock := now.Format("15:04")
	remaining := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.StartTime >= clock {
			remaining = append(remaining, entry)
		}
	}
	if len(remaining) == 0 {
		return t.say(tplNoMoreClasses, degree)
	}
	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].StartTime < remaining[j].StartTime })

	lines := []string{t.book.say(tplScheduleHeader, degree)}
	for _, entry := range remaining {
		lines = append(lines, t.book.say(tplScheduleLine, entry.StartTime, entry.EndTime, entry.ClassName, entry.Location, entry.Instructor))
	}
	return textReply(strings.Join(lines, "\n"))
}

func (t *turn) busRoutes() Reply {
	routes, err := t.engine.campus.BusRoutes(t.ctx)
	if err != nil {
		t.warn("fetch bus routes failed", err)
		return t.say(tplErrorBus)
	}
	if len(routes) == 0 {
		return t.say(tplNoBusRoutes)
	}
	blocks := []string{t.book.say(tplBusHeader)}
	for _, route := range routes {
		blocks = append(blocks, t.book.say(tplBusLine, route.Route, route.Duration, strings.Join(route.Schedule, ", ")))
	}
	return textReply(strings.Join(blocks, "\n\n"))
}

func (t *turn) events() Reply {
	events, err := t.engine.campus.Events(t.ctx)
	if err != nil {
		t.warn("fetch events failed", err)
		return t.say(tplErrorEvents)
	}
	if len(events) == 0 {
		return t.say(tplNoEvents)
	}
	events = append([]models.Event(nil), events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	blocks := []string{t.book.say(tplEventsHeader)}
	for _, ev := range events {
		blocks = append(blocks, t.book.say(tplEventLine, ev.Title, ev.Date, ev.Time, ev.Location))
	}
	return textReply(strings.Join(blocks, "\n\n"))
}

func (t *turn) modules() Reply {
	if r, ok := t.studentGate(); !ok {
		return r
	}
	modules, err := t.engine.campus.Modules(t.ctx, t.principal.Degree)
	if err != nil {
		t.warn("fetch modules failed", err)
		return t.say(tplErrorGeneric)
	}
	if len(modules) == 0 {
		return t.say(tplNoModules, t.principal.Degree)
	}
	return Reply{Kind: ReplyModuleList, Items: modules}
}

func (t *turn) fallback() Reply {
	if cat, ok := t.engine.lexicon.Bucket(t.u); ok {
		if cat == CategoryLocation {
			return textReply(t.book.say(tplClarifyPrefix+string(cat)) + " " +
				t.book.say(tplLocationHelp, strings.Join(t.engine.locations, ", ")))
		}
		return t.say(tplClarifyPrefix + string(cat))
	}
	t.state.Fallbacks++
	if t.state.Fallbacks > t.engine.threshold {
		t.state.Fallbacks = 0
		return t.say(tplFallbackEscalation)
	}
	return t.say(tplFallback)
}

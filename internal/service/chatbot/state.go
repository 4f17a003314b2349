package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"campusbot/internal/redis"
)

// Step is the position in the canteen dialogue.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingCanteen
	StepAwaitingMeal
)

// Offer records what the last bot reply invited the user to play.
type Offer string

const (
	OfferNone     Offer = ""
	OfferGame     Offer = "game"
	OfferInsights Offer = "insights"
)

// State is everything the engine remembers about one principal between turns.
type State struct {
	Step      Step   `json:"step"`
	Canteen   string `json:"canteen,omitempty"`
	Meal      string `json:"meal,omitempty"`
	Fallbacks int    `json:"fallbacks,omitempty"`
	Offer     Offer  `json:"offer,omitempty"`
}

// IsZero reports whether the state carries nothing worth storing.
func (s State) IsZero() bool {
	return s == State{}
}

// resetFlow returns the dialogue to idle, keeping the counters.
func (s *State) resetFlow() {
	s.Step = StepIdle
	s.Canteen = ""
	s.Meal = ""
}

// StateStore keeps one State per principal. Saving the zero State removes the entry.
type StateStore interface {
	Load(ctx context.Context, userID int64) (State, error)
	Save(ctx context.Context, userID int64, state State) error
	Reset(ctx context.Context, userID int64) error
}

// MemoryStateStore keeps state in process memory.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[int64]State)}
}

func (m *MemoryStateStore) Load(_ context.Context, userID int64) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID], nil
}

func (m *MemoryStateStore) Save(_ context.Context, userID int64, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state.IsZero() {
		delete(m.states, userID)
		return nil
	}
	m.states[userID] = state
	return nil
}

func (m *MemoryStateStore) Reset(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// Len returns the number of principals with stored state.
func (m *MemoryStateStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

const stateKeyPrefix = "chatbot:state:"

// RedisStateStore keeps state in redis so several instances can share it.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore stores state under chatbot:state:<user id>. Entries
// expire after ttl without activity.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

func (r *RedisStateStore) key(userID int64) string {
	return stateKeyPrefix + strconv.FormatInt(userID, 10)
}

func (r *RedisStateStore) Load(ctx context.Context, userID int64) (State, error) {
	var state State
	if err := r.client.GetJSON(ctx, r.key(userID), &state); err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("load state: %w", err)
	}
	return state, nil
}

func (r *RedisStateStore) Save(ctx context.Context, userID int64, state State) error {
	if state.IsZero() {
		return r.Reset(ctx, userID)
	}
	if err := r.client.SetJSON(ctx, r.key(userID), state, r.ttl); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (r *RedisStateStore) Reset(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	return nil
}

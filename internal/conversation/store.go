// Package conversation holds per-user conversational context for the
// assistant: recorded turns, session topics, preferences, transient state
// and derived views (context prompts, next-action suggestions).
//
// The store is the sole owner of every UserContext. State is volatile and
// process-local: sessions reset after an idle timeout, whole contexts are
// evicted after a day of inactivity, and nothing survives a restart.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mysticbob/nochickenleftbehind/internal/metrics"
)

// Retention bounds. Oldest entries are dropped first when a bound is hit.
const (
	maxTurns       = 20
	maxTopics      = 10
	maxRecentItems = 20
	maxIntents     = 10
)

const (
	defaultSessionTimeout = 30 * time.Minute
	defaultEvictionAfter  = 24 * time.Hour
	defaultRecentCount    = 5
)

// Store maps user identifiers to their conversational context. All methods
// are safe for concurrent use. Accessors return copies, never live internal
// state.
type Store struct {
	mu       sync.Mutex
	contexts map[string]*UserContext

	sessionTimeout time.Duration
	evictionAfter  time.Duration
	now            func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSessionTimeout overrides the 30-minute idle threshold after which a
// session is archived and reset.
func WithSessionTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sessionTimeout = d
		}
	}
}

// WithEvictionAfter overrides the 24-hour idle threshold after which Cleanup
// removes a context entirely.
func WithEvictionAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.evictionAfter = d
		}
	}
}

// WithClock injects the time source. Tests use this to simulate idling.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs an empty store. The caller owns scheduling of Cleanup,
// either directly or via StartJanitor.
func NewStore(opts ...Option) *Store {
	s := &Store{
		contexts:       make(map[string]*UserContext),
		sessionTimeout: defaultSessionTimeout,
		evictionAfter:  defaultEvictionAfter,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContext returns a snapshot of the user's context, creating a fresh one
// if none exists. An expired session is archived and reset first; preferences
// and history survive the reset. Any string is a valid user id.
func (s *Store) GetContext(userID string) UserContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(userID).clone()
}

// AddTurn records one exchange: the turn gets an id and timestamp, session
// topics and recent items are updated from its entities, and retention
// bounds are enforced.
func (s *Store) AddTurn(userID string, in TurnInput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc := s.resolveLocked(userID)
	now := s.now()

	turn := Turn{
		ID:           uuid.NewString(),
		UserID:       userID,
		CreatedAt:    now,
		Input:        in.Input,
		Intent:       in.Intent,
		Entities:     append([]Entity(nil), in.Entities...),
		Response:     in.Response,
		Action:       in.Action,
		ActionResult: in.ActionResult,
		Confidence:   in.Confidence,
	}

	uc.Session.Turns = append(uc.Session.Turns, turn)
	uc.Session.LastActivity = now

	// Topics: ingredient and recipe entities, lower-cased, discovery order,
	// deduplicated, most recent 10 kept.
	for _, e := range in.Entities {
		if e.Type != EntityIngredient && e.Type != EntityRecipe {
			continue
		}
		topic := strings.ToLower(e.Value)
		if !containsString(uc.Session.Topics, topic) {
			uc.Session.Topics = append(uc.Session.Topics, topic)
		}
	}
	if n := len(uc.Session.Topics); n > maxTopics {
		uc.Session.Topics = uc.Session.Topics[n-maxTopics:]
	}

	// Recent items: ingredients only, original casing, move-to-front.
	for _, e := range in.Entities {
		if e.Type != EntityIngredient {
			continue
		}
		uc.History.RecentItems = removeString(uc.History.RecentItems, e.Value)
		uc.History.RecentItems = append([]string{e.Value}, uc.History.RecentItems...)
	}
	if len(uc.History.RecentItems) > maxRecentItems {
		uc.History.RecentItems = uc.History.RecentItems[:maxRecentItems]
	}

	if n := len(uc.Session.Turns); n > maxTurns {
		uc.Session.Turns = uc.Session.Turns[n-maxTurns:]
	}

	metrics.ConversationTurnsTotal.Inc()
}

// RecentTurns returns the last count turns in chronological order. A count
// of zero or below means the default of 5.
func (s *Store) RecentTurns(userID string, count int) []Turn {
	if count <= 0 {
		count = defaultRecentCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.resolveLocked(userID).Session.Turns
	if count > len(turns) {
		count = len(turns)
	}
	return cloneTurns(turns[len(turns)-count:])
}

// CurrentTopics returns the session's topics, oldest-discovered first.
func (s *Store) CurrentTopics(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.resolveLocked(userID).Session.Topics...)
}

// Preference errors. SetPreference rejects anything outside the declared
// domains instead of silently storing it.
var (
	ErrUnknownPreferenceKey   = fmt.Errorf("unknown preference key")
	ErrInvalidPreferenceValue = fmt.Errorf("invalid preference value")
)

// SetPreference overwrites a single preference field. use_emoji accepts
// "true" or "false".
func (s *Store) SetPreference(userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc := s.resolveLocked(userID)
	switch key {
	case PrefStyle:
		switch value {
		case StyleFormal, StyleCasual, StyleConcise:
			uc.Preferences.Style = value
		default:
			return fmt.Errorf("%w: %s=%q (want formal, casual or concise)", ErrInvalidPreferenceValue, key, value)
		}
	case PrefResponseLength:
		switch value {
		case LengthShort, LengthMedium, LengthDetailed:
			uc.Preferences.ResponseLength = value
		default:
			return fmt.Errorf("%w: %s=%q (want short, medium or detailed)", ErrInvalidPreferenceValue, key, value)
		}
	case PrefUseEmoji:
		switch value {
		case "true":
			uc.Preferences.UseEmoji = true
		case "false":
			uc.Preferences.UseEmoji = false
		default:
			return fmt.Errorf("%w: %s=%q (want true or false)", ErrInvalidPreferenceValue, key, value)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPreferenceKey, key)
	}
	return nil
}

// SetState shallow-merges the delta into the user's transient state. A state
// write counts as user activity and refreshes the session deadline, the same
// as recording a turn: toggling shopping mode mid-trip keeps the session
// alive even when no message accompanies it.
func (s *Store) SetState(userID string, delta StateDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc := s.resolveLocked(userID)
	if delta.CurrentRecipe != nil {
		uc.State.CurrentRecipe = *delta.CurrentRecipe
	}
	if delta.ShoppingMode != nil {
		uc.State.ShoppingMode = *delta.ShoppingMode
	}
	if delta.PlanningMeal != nil {
		uc.State.PlanningMeal = *delta.PlanningMeal
	}
	if delta.ClearPendingConfirmation {
		uc.State.PendingConfirmation = nil
	} else if delta.PendingConfirmation != nil {
		pc := delta.PendingConfirmation.clone()
		uc.State.PendingConfirmation = &pc
	}
	uc.Session.LastActivity = s.now()
}

// State returns a defensive copy of the user's transient state. Mutating the
// returned value has no effect on stored state; use SetState.
func (s *Store) State(userID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(userID).State.clone()
}

// AddFavoriteRecipe records a recipe id in the user's favorites. Duplicates
// are ignored.
func (s *Store) AddFavoriteRecipe(userID, recipeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc := s.resolveLocked(userID)
	if !containsString(uc.History.FavoriteRecipes, recipeID) {
		uc.History.FavoriteRecipes = append(uc.History.FavoriteRecipes, recipeID)
	}
}

// SetMealTime records when the user last dealt with the given meal label.
func (s *Store) SetMealTime(userID, meal string, when time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveLocked(userID).History.MealTimes[meal] = when
}

// Cleanup evicts every context idle for longer than the eviction threshold
// and returns the number removed. Eviction is irreversible: the next lookup
// for an evicted user starts from defaults.
func (s *Store) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, uc := range s.contexts {
		if now.Sub(uc.Session.LastActivity) > s.evictionAfter {
			delete(s.contexts, userID)
			evicted++
		}
	}
	metrics.ConversationContexts.Set(float64(len(s.contexts)))
	return evicted
}

// Len reports the number of contexts currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}

// StartJanitor runs Cleanup on the given interval until ctx is done. The
// store never schedules itself; process lifecycle owns this goroutine.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					slog.Info("conversation janitor evicted idle contexts", "count", n)
				}
			}
		}
	}()
}

// resolveLocked returns the live context for userID, creating it or applying
// lazy session expiry as needed. Caller must hold s.mu.
func (s *Store) resolveLocked(userID string) *UserContext {
	now := s.now()

	uc, ok := s.contexts[userID]
	if !ok {
		uc = &UserContext{
			UserID: userID,
			Session: Session{
				StartedAt:    now,
				LastActivity: now,
			},
			Preferences: defaultPreferences(),
			History: History{
				FrequentIntents: make(map[string]int),
				MealTimes:       make(map[string]time.Time),
			},
		}
		s.contexts[userID] = uc
		metrics.ConversationContexts.Set(float64(len(s.contexts)))
		return uc
	}

	if now.Sub(uc.Session.LastActivity) > s.sessionTimeout {
		s.archiveSessionLocked(uc, now)
	}
	return uc
}

// archiveSessionLocked folds the expiring session's intents into the
// frequency table, trims it to the top entries, and resets session and state.
// Preferences and history survive.
func (s *Store) archiveSessionLocked(uc *UserContext, now time.Time) {
	for _, turn := range uc.Session.Turns {
		if turn.Intent != "" {
			uc.History.FrequentIntents[turn.Intent]++
		}
	}
	uc.History.FrequentIntents = topIntents(uc.History.FrequentIntents, maxIntents)

	uc.Session = Session{
		StartedAt:    now,
		LastActivity: now,
	}
	uc.State = State{}
}

// topIntents keeps the n highest-count entries, ties broken by intent name
// for a stable result.
func topIntents(counts map[string]int, n int) map[string]int {
	if len(counts) <= n {
		return counts
	}

	type entry struct {
		intent string
		count  int
	}
	entries := make([]entry, 0, len(counts))
	for intent, count := range counts {
		entries = append(entries, entry{intent, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].intent < entries[j].intent
	})

	out := make(map[string]int, n)
	for _, e := range entries[:n] {
		out[e.intent] = e.count
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

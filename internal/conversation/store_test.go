package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for exercising idle thresholds.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time         { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(start time.Time) (*Store, *fakeClock) {
	clock := &fakeClock{t: start}
	return NewStore(WithClock(clock.now)), clock
}

func TestGetContextIsIdempotent(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	first := s.GetContext("u1")
	second := s.GetContext("u1")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Len())
}

func TestGetContextDefaults(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	uc := s.GetContext("u1")

	assert.Equal(t, "u1", uc.UserID)
	assert.Equal(t, StyleCasual, uc.Preferences.Style)
	assert.Equal(t, LengthMedium, uc.Preferences.ResponseLength)
	assert.False(t, uc.Preferences.UseEmoji)
	assert.Empty(t, uc.Session.Turns)
	assert.Empty(t, uc.Session.Topics)
}

func TestGetContextReturnsCopies(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.AddTurn("u1", TurnInput{
		Input:    "add milk",
		Intent:   "ADD_ITEM",
		Entities: []Entity{{Type: EntityIngredient, Value: "Milk"}},
		Response: "done",
	})

	uc := s.GetContext("u1")
	uc.Session.Turns[0].Input = "mutated"
	uc.Session.Topics[0] = "mutated"
	uc.Preferences.Style = StyleFormal

	fresh := s.GetContext("u1")
	assert.Equal(t, "add milk", fresh.Session.Turns[0].Input)
	assert.Equal(t, "milk", fresh.Session.Topics[0])
	assert.Equal(t, StyleCasual, fresh.Preferences.Style)
}

func TestSnapshotEntitiesNotAliased(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.AddTurn("u1", TurnInput{
		Input:    "add milk",
		Intent:   "ADD_ITEM",
		Entities: []Entity{{Type: EntityIngredient, Value: "Milk"}},
		Response: "done",
	})

	uc := s.GetContext("u1")
	uc.Session.Turns[0].Entities[0].Value = "mutated"
	assert.Equal(t, "Milk", s.GetContext("u1").Session.Turns[0].Entities[0].Value)

	recent := s.RecentTurns("u1", 1)
	recent[0].Entities[0].Value = "mutated"
	assert.Equal(t, "Milk", s.RecentTurns("u1", 1)[0].Entities[0].Value)
}

func TestTurnRetentionBound(t *testing.T) {
	s, clock := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 25; i++ {
		s.AddTurn("u1", TurnInput{Input: fmt.Sprintf("message %d", i)})
		clock.advance(time.Second)
	}

	turns := s.RecentTurns("u1", 100)
	require.Len(t, turns, 20)
	// Oldest five dropped; remainder in chronological order.
	assert.Equal(t, "message 5", turns[0].Input)
	assert.Equal(t, "message 24", turns[19].Input)
	for i := 1; i < len(turns); i++ {
		assert.False(t, turns[i].CreatedAt.Before(turns[i-1].CreatedAt))
	}
}

func TestRecentTurnsDefaultCount(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 8; i++ {
		s.AddTurn("u1", TurnInput{Input: fmt.Sprintf("message %d", i)})
	}

	turns := s.RecentTurns("u1", 0)
	require.Len(t, turns, 5)
	assert.Equal(t, "message 3", turns[0].Input)
}

func TestTopicRetentionBound(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 15; i++ {
		s.AddTurn("u1", TurnInput{
			Entities: []Entity{{Type: EntityIngredient, Value: fmt.Sprintf("Ingredient%d", i)}},
		})
	}

	topics := s.CurrentTopics("u1")
	require.Len(t, topics, 10)
	assert.Equal(t, "ingredient5", topics[0])
	assert.Equal(t, "ingredient14", topics[9])
}

func TestTopicsDeduplicatedAndLowercased(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	s.AddTurn("u1", TurnInput{Entities: []Entity{{Type: EntityIngredient, Value: "Flour"}}})
	s.AddTurn("u1", TurnInput{Entities: []Entity{{Type: EntityRecipe, Value: "Pancakes"}}})
	s.AddTurn("u1", TurnInput{Entities: []Entity{{Type: EntityIngredient, Value: "flour"}}})
	s.AddTurn("u1", TurnInput{Entities: []Entity{{Type: "other", Value: "twelve"}}})

	assert.Equal(t, []string{"flour", "pancakes"}, s.CurrentTopics("u1"))
}

func TestRecentItemsMoveToFront(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	s.AddTurn("u1", TurnInput{Entities: []Entity{{Type: EntityIngredient, Value: "flour"}}})
	s.AddTurn("u1", TurnInput{Entities: []Entity{{Type: EntityIngredient, Value: "sugar"}}})
	s.AddTurn("u1", TurnInput{Entities: []Entity{{Type: EntityIngredient, Value: "flour"}}})

	uc := s.GetContext("u1")
	assert.Equal(t, []string{"flour", "sugar"}, uc.History.RecentItems)
}

func TestSessionExpiryPreservesPreferencesAndHistory(t *testing.T) {
	s, clock := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.SetPreference("u1", PrefStyle, StyleFormal))
	s.AddTurn("u1", TurnInput{
		Input:    "add milk",
		Intent:   "ADD_ITEM",
		Entities: []Entity{{Type: EntityIngredient, Value: "milk"}},
	})
	s.SetState("u1", StateDelta{ShoppingMode: boolPtr(true)})
	before := s.GetContext("u1")

	clock.advance(31 * time.Minute)
	after := s.GetContext("u1")

	assert.Empty(t, after.Session.Turns)
	assert.Empty(t, after.Session.Topics)
	assert.True(t, after.Session.StartedAt.After(before.Session.StartedAt))
	assert.Equal(t, StyleFormal, after.Preferences.Style)
	assert.Equal(t, []string{"milk"}, after.History.RecentItems)
	assert.Equal(t, 1, after.History.FrequentIntents["ADD_ITEM"])
	assert.False(t, after.State.ShoppingMode)
}

func TestSessionExpiryTrimsIntentTable(t *testing.T) {
	s, clock := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	// Twelve distinct intents, "KEEP" seen twice so it must survive the trim.
	s.AddTurn("u1", TurnInput{Intent: "KEEP"})
	s.AddTurn("u1", TurnInput{Intent: "KEEP"})
	for i := 0; i < 11; i++ {
		s.AddTurn("u1", TurnInput{Intent: fmt.Sprintf("INTENT_%02d", i)})
	}

	clock.advance(31 * time.Minute)
	uc := s.GetContext("u1")

	require.Len(t, uc.History.FrequentIntents, 10)
	assert.Equal(t, 2, uc.History.FrequentIntents["KEEP"])
	// Ties broken by name, so the alphabetically last singleton is dropped.
	assert.NotContains(t, uc.History.FrequentIntents, "INTENT_10")
	assert.Contains(t, uc.History.FrequentIntents, "INTENT_00")
}

func TestCleanupEvictsIdleContexts(t *testing.T) {
	s, clock := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.SetPreference("u1", PrefStyle, StyleConcise))
	s.AddTurn("u2", TurnInput{Input: "hi"})

	clock.advance(25 * time.Hour)
	s.AddTurn("u2", TurnInput{Input: "still here"})

	assert.Equal(t, 1, s.Cleanup())
	assert.Equal(t, 1, s.Len())

	// Evicted user starts over from defaults.
	uc := s.GetContext("u1")
	assert.Equal(t, StyleCasual, uc.Preferences.Style)
}

func TestSetPreferenceValidation(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, s.SetPreference("u1", PrefResponseLength, LengthShort))
	require.NoError(t, s.SetPreference("u1", PrefUseEmoji, "true"))

	uc := s.GetContext("u1")
	assert.Equal(t, LengthShort, uc.Preferences.ResponseLength)
	assert.True(t, uc.Preferences.UseEmoji)

	err := s.SetPreference("u1", PrefStyle, "sarcastic")
	assert.ErrorIs(t, err, ErrInvalidPreferenceValue)
	err = s.SetPreference("u1", PrefUseEmoji, "yes")
	assert.ErrorIs(t, err, ErrInvalidPreferenceValue)
	err = s.SetPreference("u1", "favorite_color", "blue")
	assert.ErrorIs(t, err, ErrUnknownPreferenceKey)
}

func TestSetStateMergesDelta(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	s.SetState("u1", StateDelta{
		CurrentRecipe: strPtr("r-42"),
		ShoppingMode:  boolPtr(true),
	})
	s.SetState("u1", StateDelta{PlanningMeal: strPtr("dinner")})

	st := s.State("u1")
	assert.Equal(t, "r-42", st.CurrentRecipe)
	assert.True(t, st.ShoppingMode)
	assert.Equal(t, "dinner", st.PlanningMeal)

	s.SetState("u1", StateDelta{CurrentRecipe: strPtr("")})
	assert.Empty(t, s.State("u1").CurrentRecipe)
}

func TestPendingConfirmationCopies(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	pc := PendingConfirmation{
		Action: "remove_pantry_item",
		Data:   map[string]any{"item": "milk"},
	}
	s.SetState("u1", StateDelta{PendingConfirmation: &pc})
	pc.Data["item"] = "mutated"

	st := s.State("u1")
	require.NotNil(t, st.PendingConfirmation)
	assert.Equal(t, "milk", st.PendingConfirmation.Data["item"])

	st.PendingConfirmation.Data["item"] = "also mutated"
	assert.Equal(t, "milk", s.State("u1").PendingConfirmation.Data["item"])

	s.SetState("u1", StateDelta{ClearPendingConfirmation: true})
	assert.Nil(t, s.State("u1").PendingConfirmation)
}

func TestContextPromptDeterministic(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		s.AddTurn("u1", TurnInput{
			Input:    fmt.Sprintf("question %d", i),
			Response: fmt.Sprintf("answer %d", i),
		})
	}
	s.AddTurn("u1", TurnInput{
		Input:    "how about pasta",
		Response: "sure",
		Entities: []Entity{{Type: EntityRecipe, Value: "Pasta"}},
	})
	s.SetState("u1", StateDelta{
		CurrentRecipe: strPtr("pasta carbonara"),
		ShoppingMode:  boolPtr(true),
		PlanningMeal:  strPtr("dinner"),
	})

	want := "User: question 4\n" +
		"Assistant: answer 4\n" +
		"User: how about pasta\n" +
		"Assistant: sure\n" +
		"Current topics: pasta\n" +
		"Currently discussing recipe: pasta carbonara\n" +
		"User is currently shopping.\n" +
		"Planning meal: dinner\n" +
		"Communication style: casual\n" +
		"Response length: medium\n"

	// Rendering has no hidden state; repeated calls are byte-identical.
	first := s.ContextPrompt("u1")
	assert.Equal(t, want, first)
	assert.Equal(t, first, s.ContextPrompt("u1"))
}

func TestContextPromptMinimal(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	want := "Communication style: casual\n" +
		"Response length: medium\n"
	assert.Equal(t, want, s.ContextPrompt("u1"))
}

func TestSuggestionsRuleOrderAndCap(t *testing.T) {
	// 3pm: outside every time-of-day window.
	s, _ := newTestStore(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))

	s.AddTurn("u1", TurnInput{
		Intent:   "ADD_ITEM",
		Entities: []Entity{{Type: EntityIngredient, Value: "milk"}},
	})
	s.AddTurn("u1", TurnInput{Intent: "FIND_RECIPES"})
	s.SetState("u1", StateDelta{ShoppingMode: boolPtr(true)})

	got := s.SuggestNextActions("u1")
	assert.Equal(t, []string{
		"check what recipes you can make",
		"view your pantry inventory",
		"add missing ingredients to grocery list",
		"start cooking timer",
	}, got)
}

func TestSuggestionsTimeOfDay(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{7, "plan breakfast"},
		{12, "what's for lunch?"},
		{18, "plan dinner"},
	}
	for _, tc := range cases {
		s, _ := newTestStore(time.Date(2025, 6, 1, tc.hour, 30, 0, 0, time.UTC))
		got := s.SuggestNextActions("u1")
		require.Len(t, got, 1, "hour %d", tc.hour)
		assert.Equal(t, tc.want, got[0])
	}

	s, _ := newTestStore(time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC))
	assert.Empty(t, s.SuggestNextActions("u1"))
}

func TestSuggestionsRecentItem(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))

	s.AddTurn("u1", TurnInput{
		Intent:   "REMOVE_ITEM",
		Entities: []Entity{{Type: EntityIngredient, Value: "Basil"}},
	})

	assert.Equal(t, []string{"find recipes with Basil"}, s.SuggestNextActions("u1"))
}

func TestAddMilkScenario(t *testing.T) {
	s, _ := newTestStore(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))

	s.AddTurn("u1", TurnInput{
		Input:    "add milk to my pantry",
		Intent:   "ADD_ITEM",
		Entities: []Entity{{Type: EntityIngredient, Value: "Milk"}},
		Response: "Added milk to your pantry.",
		Action:   "add_pantry_item",
	})

	assert.Equal(t, []string{"milk"}, s.CurrentTopics("u1"))

	uc := s.GetContext("u1")
	assert.Equal(t, []string{"Milk"}, uc.History.RecentItems)

	got := s.SuggestNextActions("u1")
	assert.Contains(t, got, "check what recipes you can make")
}

func TestFavoriteRecipesAndMealTimes(t *testing.T) {
	s, clock := newTestStore(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	s.AddFavoriteRecipe("u1", "r-1")
	s.AddFavoriteRecipe("u1", "r-1")
	s.AddFavoriteRecipe("u1", "r-2")
	s.SetMealTime("u1", "dinner", clock.now())

	uc := s.GetContext("u1")
	assert.Equal(t, []string{"r-1", "r-2"}, uc.History.FavoriteRecipes)
	assert.Equal(t, clock.now(), uc.History.MealTimes["dinner"])
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(v string) *string { return &v }

package conversation

import "time"

// Entity types recognized by topic and recent-item tracking.
const (
	EntityIngredient = "ingredient"
	EntityRecipe     = "recipe"
)

// Entity is a value extracted from user input, tagged with its kind.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Turn is one user/assistant exchange. Turns are immutable once recorded.
type Turn struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	Input        string    `json:"input"`
	Intent       string    `json:"intent,omitempty"`
	Entities     []Entity  `json:"entities,omitempty"`
	Response     string    `json:"response"`
	Action       string    `json:"action,omitempty"`
	ActionResult any       `json:"action_result,omitempty"`
	Confidence   float64   `json:"confidence"`
}

// TurnInput is the caller-supplied portion of a turn. ID, owner and
// timestamp are assigned by the store.
type TurnInput struct {
	Input        string   `json:"input"`
	Intent       string   `json:"intent,omitempty"`
	Entities     []Entity `json:"entities,omitempty"`
	Response     string   `json:"response"`
	Action       string   `json:"action,omitempty"`
	ActionResult any      `json:"action_result,omitempty"`
	Confidence   float64  `json:"confidence"`
}

// Preference value domains.
const (
	StyleFormal  = "formal"
	StyleCasual  = "casual"
	StyleConcise = "concise"

	LengthShort    = "short"
	LengthMedium   = "medium"
	LengthDetailed = "detailed"
)

// Preference keys accepted by SetPreference.
const (
	PrefStyle          = "communication_style"
	PrefResponseLength = "response_length"
	PrefUseEmoji       = "use_emoji"
)

// Preferences survive session expiry; only full eviction resets them.
type Preferences struct {
	Style          string `json:"communication_style"`
	ResponseLength string `json:"response_length"`
	UseEmoji       bool   `json:"use_emoji"`
}

func defaultPreferences() Preferences {
	return Preferences{
		Style:          StyleCasual,
		ResponseLength: LengthMedium,
		UseEmoji:       false,
	}
}

// History accumulates across sessions until the context is evicted.
// FavoriteRecipes and MealTimes are populated by callers, not by the store.
type History struct {
	FrequentIntents map[string]int       `json:"frequent_intents"`
	RecentItems     []string             `json:"recent_items"`
	FavoriteRecipes []string             `json:"favorite_recipes"`
	MealTimes       map[string]time.Time `json:"meal_times"`
}

// PendingConfirmation holds an action awaiting an "are you sure?" reply.
type PendingConfirmation struct {
	Action    string         `json:"action"`
	Data      map[string]any `json:"data,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// State holds session-scoped transient fields. It resets along with the
// session when the idle timeout elapses.
type State struct {
	CurrentRecipe       string               `json:"current_recipe,omitempty"`
	ShoppingMode        bool                 `json:"shopping_mode"`
	PlanningMeal        string               `json:"planning_meal,omitempty"`
	PendingConfirmation *PendingConfirmation `json:"pending_confirmation,omitempty"`
}

// StateDelta is a shallow merge applied by SetState. Nil pointer fields are
// left unchanged; a pointer to the zero value clears the field. Clearing the
// pending confirmation requires the explicit flag, since a nil pointer
// already means "unchanged".
type StateDelta struct {
	CurrentRecipe            *string              `json:"current_recipe,omitempty"`
	ShoppingMode             *bool                `json:"shopping_mode,omitempty"`
	PlanningMeal             *string              `json:"planning_meal,omitempty"`
	PendingConfirmation      *PendingConfirmation `json:"pending_confirmation,omitempty"`
	ClearPendingConfirmation bool                 `json:"clear_pending_confirmation,omitempty"`
}

// Session is the active conversation window for a user.
type Session struct {
	StartedAt    time.Time `json:"started_at"`
	Turns        []Turn    `json:"turns"`
	Topics       []string  `json:"topics"`
	LastActivity time.Time `json:"last_activity"`
}

// UserContext is the per-user aggregate root owned by the Store.
type UserContext struct {
	UserID      string      `json:"user_id"`
	Session     Session     `json:"session"`
	Preferences Preferences `json:"preferences"`
	History     History     `json:"history"`
	State       State       `json:"state"`
}

// cloneTurns copies turns including each turn's entity slice, so snapshots
// never share backing arrays with stored state.
func cloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t
		out[i].Entities = append([]Entity(nil), t.Entities...)
	}
	return out
}

func (c *UserContext) clone() UserContext {
	out := *c
	out.Session.Turns = cloneTurns(c.Session.Turns)
	out.Session.Topics = append([]string(nil), c.Session.Topics...)
	out.History.RecentItems = append([]string(nil), c.History.RecentItems...)
	out.History.FavoriteRecipes = append([]string(nil), c.History.FavoriteRecipes...)
	out.History.FrequentIntents = make(map[string]int, len(c.History.FrequentIntents))
	for k, v := range c.History.FrequentIntents {
		out.History.FrequentIntents[k] = v
	}
	out.History.MealTimes = make(map[string]time.Time, len(c.History.MealTimes))
	for k, v := range c.History.MealTimes {
		out.History.MealTimes[k] = v
	}
	out.State = c.State.clone()
	return out
}

func (s State) clone() State {
	out := s
	if s.PendingConfirmation != nil {
		pc := s.PendingConfirmation.clone()
		out.PendingConfirmation = &pc
	}
	return out
}

func (p *PendingConfirmation) clone() PendingConfirmation {
	out := *p
	out.Data = make(map[string]any, len(p.Data))
	for k, v := range p.Data {
		out.Data[k] = v
	}
	return out
}

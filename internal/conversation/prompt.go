package conversation

import (
	"fmt"
	"strings"
)

const promptTurns = 3

// ContextPrompt renders the user's context as plain text for inclusion in an
// LLM system prompt. Output is deterministic for a given context: recent
// turns first, then session topics and transient state, then the preference
// lines, which are always present.
func (s *Store) ContextPrompt(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc := s.resolveLocked(userID)

	var b strings.Builder

	turns := uc.Session.Turns
	if len(turns) > promptTurns {
		turns = turns[len(turns)-promptTurns:]
	}
	for _, turn := range turns {
		fmt.Fprintf(&b, "User: %s\n", turn.Input)
		fmt.Fprintf(&b, "Assistant: %s\n", turn.Response)
	}

	if len(uc.Session.Topics) > 0 {
		fmt.Fprintf(&b, "Current topics: %s\n", strings.Join(uc.Session.Topics, ", "))
	}
	if uc.State.CurrentRecipe != "" {
		fmt.Fprintf(&b, "Currently discussing recipe: %s\n", uc.State.CurrentRecipe)
	}
	if uc.State.ShoppingMode {
		b.WriteString("User is currently shopping.\n")
	}
	if uc.State.PlanningMeal != "" {
		fmt.Fprintf(&b, "Planning meal: %s\n", uc.State.PlanningMeal)
	}

	fmt.Fprintf(&b, "Communication style: %s\n", uc.Preferences.Style)
	fmt.Fprintf(&b, "Response length: %s\n", uc.Preferences.ResponseLength)

	return b.String()
}

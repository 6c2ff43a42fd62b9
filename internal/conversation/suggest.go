package conversation

import "fmt"

const maxSuggestions = 4

// SuggestNextActions proposes up to four follow-up actions from the session's
// turns, transient state, recent items and the local time of day. Earlier
// rules win when the cap is reached.
func (s *Store) SuggestNextActions(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc := s.resolveLocked(userID)
	out := make([]string, 0, maxSuggestions)

	add := func(suggestions ...string) {
		for _, sg := range suggestions {
			if len(out) >= maxSuggestions {
				return
			}
			out = append(out, sg)
		}
	}

	if sessionHasIntent(uc, "ADD_ITEM") {
		add("check what recipes you can make", "view your pantry inventory")
	}
	if sessionHasIntent(uc, "FIND_RECIPES") {
		add("add missing ingredients to grocery list", "start cooking timer")
	}
	if uc.State.ShoppingMode {
		add("check off items as you shop", "add items to pantry when done")
	}

	switch hour := s.now().Hour(); {
	case hour >= 6 && hour < 10:
		add("plan breakfast")
	case hour >= 11 && hour < 14:
		add("what's for lunch?")
	case hour >= 16 && hour < 20:
		add("plan dinner")
	}

	if len(uc.History.RecentItems) > 0 {
		add(fmt.Sprintf("find recipes with %s", uc.History.RecentItems[0]))
	}

	return out
}

func sessionHasIntent(uc *UserContext, intent string) bool {
	for _, turn := range uc.Session.Turns {
		if turn.Intent == intent {
			return true
		}
	}
	return false
}

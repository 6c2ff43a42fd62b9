package assistant

import (
	"strings"

	"github.com/mysticbob/nochickenleftbehind/internal/conversation"
)

// Intent labels attached to conversation turns.
const (
	IntentAddItem       = "ADD_ITEM"
	IntentRemoveItem    = "REMOVE_ITEM"
	IntentFindRecipes   = "FIND_RECIPES"
	IntentPlanMeal      = "PLAN_MEAL"
	IntentShowPantry    = "SHOW_PANTRY"
	IntentStartShopping = "START_SHOPPING"
	IntentStopShopping  = "STOP_SHOPPING"
	IntentRateRecipe    = "RATE_RECIPE"
	IntentHelp          = "HELP"
	IntentUnknown       = ""
)

// intentRule matches when any of its phrases occurs in the normalized input.
// Rules are checked in order, so multi-word phrases that would otherwise be
// shadowed by a broader rule come first.
type intentRule struct {
	intent  string
	phrases []string
}

var intentRules = []intentRule{
	{IntentStartShopping, []string{"start shopping", "go shopping", "going shopping", "shopping mode on"}},
	{IntentStopShopping, []string{"stop shopping", "done shopping", "finished shopping", "shopping mode off"}},
	{IntentRateRecipe, []string{"rate ", " stars"}},
	{IntentPlanMeal, []string{"plan ", "meal plan", "schedule "}},
	{IntentFindRecipes, []string{"what can i make", "what can i cook", "recipe", "recipes", "cook with"}},
	{IntentShowPantry, []string{"show my pantry", "show pantry", "what do i have", "pantry inventory", "what's in my pantry", "whats in my pantry"}},
	{IntentRemoveItem, []string{"remove ", "used up", "ran out of", "throw away", "throw out", "delete "}},
	{IntentAddItem, []string{"add ", "bought ", "buy ", "just got ", "picked up "}},
	{IntentHelp, []string{"help", "what can you do"}},
}

// Classify maps free-form input to an intent label and the entities it
// mentions. It is a deterministic keyword matcher; the LLM only writes the
// reply, never the intent.
func Classify(input string) (string, []conversation.Entity) {
	normalized := " " + strings.ToLower(strings.TrimRight(strings.TrimSpace(input), ".!?")) + " "

	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(normalized, phrase) {
				return rule.intent, extractEntities(rule.intent, input)
			}
		}
	}
	return IntentUnknown, nil
}

// Words that carry no entity meaning when they lead a noun phrase.
var leadingNoise = map[string]bool{
	"a": true, "an": true, "the": true, "some": true, "more": true,
	"of": true, "my": true, "me": true, "please": true,
}

// Words that terminate a noun phrase.
var trailingStop = map[string]bool{
	"to": true, "from": true, "into": true, "in": true, "for": true,
	"please": true, "pantry": true, "list": true, "stars": true, "star": true,
}

func extractEntities(intent, input string) []conversation.Entity {
	words := strings.Fields(strings.TrimRight(strings.TrimSpace(input), ".!?"))

	switch intent {
	case IntentAddItem:
		return ingredientEntities(phraseAfter(words, "add", "bought", "buy", "got", "up"))
	case IntentRemoveItem:
		return ingredientEntities(phraseAfter(words, "remove", "delete", "of", "away", "out"))
	case IntentFindRecipes:
		return ingredientEntities(phraseAfter(words, "with", "using", "from"))
	case IntentRateRecipe:
		if name := strings.Join(phraseAfter(words, "rate", "rated"), " "); name != "" {
			return []conversation.Entity{{Type: conversation.EntityRecipe, Value: name}}
		}
	}
	return nil
}

// phraseAfter returns the noun phrase following the first marker word,
// stripped of leading filler and cut at the first stop word or digit.
func phraseAfter(words []string, markers ...string) []string {
	start := -1
	for i, w := range words {
		lw := strings.ToLower(w)
		for _, m := range markers {
			if lw == m {
				start = i + 1
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 || start >= len(words) {
		return nil
	}

	rest := words[start:]
	for len(rest) > 0 && (leadingNoise[strings.ToLower(rest[0])] || isNumeric(rest[0])) {
		rest = rest[1:]
	}

	var phrase []string
	for _, w := range rest {
		lw := strings.ToLower(w)
		if trailingStop[lw] || isNumeric(w) {
			break
		}
		phrase = append(phrase, w)
	}
	return phrase
}

// ingredientEntities splits a phrase on "and" and commas into one ingredient
// entity per item, preserving the original casing.
func ingredientEntities(phrase []string) []conversation.Entity {
	if len(phrase) == 0 {
		return nil
	}

	var entities []conversation.Entity
	var current []string
	flush := func() {
		if len(current) > 0 {
			entities = append(entities, conversation.Entity{
				Type:  conversation.EntityIngredient,
				Value: strings.Join(current, " "),
			})
			current = nil
		}
	}

	for _, w := range phrase {
		trimmed := strings.TrimSuffix(w, ",")
		endsItem := trimmed != w
		if strings.ToLower(trimmed) == "and" {
			flush()
			continue
		}
		if trimmed != "" {
			current = append(current, trimmed)
		}
		if endsItem {
			flush()
		}
	}
	flush()
	return entities
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

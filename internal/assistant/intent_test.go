package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysticbob/nochickenleftbehind/internal/conversation"
)

func TestClassifyIntents(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"add milk to my pantry", IntentAddItem},
		{"I bought eggs and butter", IntentAddItem},
		{"picked up some flour", IntentAddItem},
		{"remove eggs from the pantry", IntentRemoveItem},
		{"we ran out of milk", IntentRemoveItem},
		{"what can I make with chicken?", IntentFindRecipes},
		{"find me a recipe", IntentFindRecipes},
		{"plan dinner for tuesday", IntentPlanMeal},
		{"show my pantry", IntentShowPantry},
		{"what do I have at home", IntentShowPantry},
		{"start shopping", IntentStartShopping},
		{"I'm done shopping", IntentStopShopping},
		{"rate the lasagna 5 stars", IntentRateRecipe},
		{"help", IntentHelp},
		{"what can you do", IntentHelp},
		{"the weather is nice today", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intent, _ := Classify(tt.input)
			assert.Equal(t, tt.want, intent)
		})
	}
}

func TestClassifyExtractsIngredients(t *testing.T) {
	intent, entities := Classify("add Milk to my pantry")
	assert.Equal(t, IntentAddItem, intent)
	require.Len(t, entities, 1)
	assert.Equal(t, conversation.EntityIngredient, entities[0].Type)
	assert.Equal(t, "Milk", entities[0].Value)
}

func TestClassifyExtractsMultipleIngredients(t *testing.T) {
	_, entities := Classify("what can I make with chicken and rice")
	require.Len(t, entities, 2)
	assert.Equal(t, "chicken", entities[0].Value)
	assert.Equal(t, "rice", entities[1].Value)
}

func TestClassifyCommaSeparatedIngredients(t *testing.T) {
	_, entities := Classify("add flour, sugar and butter")
	require.Len(t, entities, 3)
	assert.Equal(t, "flour", entities[0].Value)
	assert.Equal(t, "sugar", entities[1].Value)
	assert.Equal(t, "butter", entities[2].Value)
}

func TestClassifyStripsQuantityAndFiller(t *testing.T) {
	_, entities := Classify("add 2 cartons of eggs")
	require.Len(t, entities, 1)
	assert.Equal(t, "cartons", entities[0].Value[:7])
}

func TestClassifyRecipeEntity(t *testing.T) {
	intent, entities := Classify("rate the lasagna 5 stars")
	assert.Equal(t, IntentRateRecipe, intent)
	require.Len(t, entities, 1)
	assert.Equal(t, conversation.EntityRecipe, entities[0].Type)
	assert.Equal(t, "lasagna", entities[0].Value)
}

func TestClassifyNoEntitiesForBareIntent(t *testing.T) {
	intent, entities := Classify("start shopping")
	assert.Equal(t, IntentStartShopping, intent)
	assert.Empty(t, entities)
}

func TestToolInvocation(t *testing.T) {
	ingredient := func(v string) conversation.Entity {
		return conversation.Entity{Type: conversation.EntityIngredient, Value: v}
	}

	tool, args := toolInvocation(IntentAddItem, []conversation.Entity{ingredient("milk")})
	assert.Equal(t, "add_pantry_item", tool)
	assert.Equal(t, "milk", args["name"])

	tool, args = toolInvocation(IntentRemoveItem, []conversation.Entity{ingredient("eggs")})
	assert.Equal(t, "remove_pantry_item", tool)
	assert.Equal(t, "eggs", args["name"])

	tool, _ = toolInvocation(IntentShowPantry, nil)
	assert.Equal(t, "list_pantry", tool)

	tool, args = toolInvocation(IntentFindRecipes, []conversation.Entity{ingredient("chicken"), ingredient("rice")})
	assert.Equal(t, "find_recipes", tool)
	assert.Equal(t, []any{"chicken", "rice"}, args["ingredients"])

	tool, _ = toolInvocation(IntentAddItem, nil)
	assert.Empty(t, tool, "no entity means nothing to add")

	tool, _ = toolInvocation(IntentHelp, nil)
	assert.Empty(t, tool)
}

func TestFallbackReply(t *testing.T) {
	entities := []conversation.Entity{{Type: conversation.EntityIngredient, Value: "milk"}}

	assert.Contains(t, fallbackReply(IntentAddItem, entities), "milk")
	assert.Contains(t, fallbackReply(IntentFindRecipes, entities), "milk")
	assert.NotEmpty(t, fallbackReply(IntentHelp, nil))
	assert.NotEmpty(t, fallbackReply(IntentUnknown, nil))
}

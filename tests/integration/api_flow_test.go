//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestRecipeLifecycle(t *testing.T) {
	env := SetupTestEnv(t)
	token := RegisterUser(t, env, "cook@example.com", "password123")

	// Create
	resp := DoRequest(t, env, "POST", "/api/v1/recipes", map[string]any{
		"title":       "Tomato Soup",
		"description": "Simple weeknight soup",
		"ingredients": []map[string]any{
			{"name": "tomato", "quantity": 6, "unit": "pcs"},
			{"name": "onion", "quantity": 1, "unit": "pcs"},
		},
		"instructions": []string{"Chop", "Simmer", "Blend"},
		"tags":         []string{"soup", "vegetarian"},
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating recipe: status %d", resp.StatusCode)
	}
	created := ParseResponse(t, resp)
	recipeID := created["data"].(map[string]any)["id"].(string)

	// List with ingredient filter
	resp = DoRequest(t, env, "GET", "/api/v1/recipes?ingredients=tomato", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing recipes: status %d", resp.StatusCode)
	}
	listed := ParseResponse(t, resp)
	if len(listed["data"].([]any)) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(listed["data"].([]any)))
	}

	// Rate
	resp = DoRequest(t, env, "POST", fmt.Sprintf("/api/v1/recipes/%s/rating", recipeID), map[string]any{
		"score": 5,
	}, token)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		t.Fatalf("rating recipe: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Another user cannot touch it
	otherToken := RegisterUser(t, env, "other@example.com", "password123")
	resp = DoRequest(t, env, "DELETE", "/api/v1/recipes/"+recipeID, nil, otherToken)
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected ownership rejection, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Owner deletes
	resp = DoRequest(t, env, "DELETE", "/api/v1/recipes/"+recipeID, nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deleting recipe: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPantryAndToolCalls(t *testing.T) {
	env := SetupTestEnv(t)
	token := RegisterUser(t, env, "pantry@example.com", "password123")

	// Add through the tool surface
	resp := DoRequest(t, env, "POST", "/api/v1/tools/add_pantry_item", map[string]any{
		"name":     "Flour",
		"quantity": 2,
		"unit":     "kg",
	}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tool add_pantry_item: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Adding again tops up instead of duplicating
	resp = DoRequest(t, env, "POST", "/api/v1/tools/add_pantry_item", map[string]any{
		"name":     "flour",
		"quantity": 1,
	}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tool add_pantry_item again: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = DoRequest(t, env, "GET", "/api/v1/pantry", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing pantry: status %d", resp.StatusCode)
	}
	listed := ParseResponse(t, resp)
	items := listed["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 pantry item, got %d", len(items))
	}
	if qty := items[0].(map[string]any)["quantity"].(float64); qty != 3 {
		t.Fatalf("expected topped-up quantity 3, got %v", qty)
	}

	// Unknown tool is a 404
	resp = DoRequest(t, env, "POST", "/api/v1/tools/no_such_tool", map[string]any{}, token)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown tool, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Missing required argument is a validation error
	resp = DoRequest(t, env, "POST", "/api/v1/tools/add_pantry_item", map[string]any{}, token)
	if resp.StatusCode != http.StatusUnprocessableEntity && resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAssistantStateAndPreferences(t *testing.T) {
	env := SetupTestEnv(t)
	token := RegisterUser(t, env, "chatty@example.com", "password123")

	// Preferences validate their domain
	resp := DoRequest(t, env, "PUT", "/api/v1/assistant/preferences", map[string]any{
		"key":   "style",
		"value": "formal",
	}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("setting preference: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = DoRequest(t, env, "PUT", "/api/v1/assistant/preferences", map[string]any{
		"key":   "style",
		"value": "shouty",
	}, token)
	if resp.StatusCode != http.StatusUnprocessableEntity && resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected invalid preference rejection, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// State round-trip
	resp = DoRequest(t, env, "PUT", "/api/v1/assistant/state", map[string]any{
		"shopping_mode": true,
	}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("setting state: status %d", resp.StatusCode)
	}
	state := ParseResponse(t, resp)
	if on := state["data"].(map[string]any)["shopping_mode"].(bool); !on {
		t.Fatal("expected shopping mode on")
	}

	resp = DoRequest(t, env, "GET", "/api/v1/assistant/suggestions", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("getting suggestions: status %d", resp.StatusCode)
	}
	suggestions := ParseResponse(t, resp)
	got := suggestions["data"].(map[string]any)["suggestions"].([]any)
	if len(got) == 0 {
		t.Fatal("expected shopping-mode suggestions")
	}
}

func TestBillingSubscription(t *testing.T) {
	env := SetupTestEnv(t)
	token := RegisterUser(t, env, "billing@example.com", "password123")

	resp := DoRequest(t, env, "GET", "/api/v1/billing/subscription", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("getting subscription: status %d", resp.StatusCode)
	}
	status := ParseResponse(t, resp)
	data := status["data"].(map[string]any)
	if plan := data["plan"].(string); plan != "free" {
		t.Fatalf("expected default free plan, got %q", plan)
	}

	resp = DoRequest(t, env, "POST", "/api/v1/billing/subscription", map[string]any{
		"plan": "premium",
	}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("changing plan: status %d", resp.StatusCode)
	}
	changed := ParseResponse(t, resp)
	if plan := changed["data"].(map[string]any)["plan"].(string); plan != "premium" {
		t.Fatalf("expected premium plan, got %q", plan)
	}
}

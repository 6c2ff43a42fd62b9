package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mysticbob/nochickenleftbehind/internal/grocery"
	"github.com/mysticbob/nochickenleftbehind/internal/mealplan"
	"github.com/mysticbob/nochickenleftbehind/internal/pantry"
	"github.com/mysticbob/nochickenleftbehind/internal/recipes"
)

// Deps are the services the default tools operate on.
type Deps struct {
	Pantry   *pantry.Service
	Recipes  *recipes.Service
	Grocery  *grocery.Service
	MealPlan *mealplan.Service
}

// RegisterDefaults wires the standard tool set into the registry.
func RegisterDefaults(r *Registry, deps Deps) error {
	defaults := []Tool{
		addPantryItemTool(deps.Pantry),
		removePantryItemTool(deps.Pantry),
		listPantryTool(deps.Pantry),
		findRecipesTool(deps.Recipes),
		addGroceryItemTool(deps.Grocery),
		planMealTool(deps.MealPlan),
	}
	for _, t := range defaults {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func addPantryItemTool(svc *pantry.Service) Tool {
	return NewFuncTool(
		"add_pantry_item",
		"Add an item to the user's pantry, topping up the quantity if it already exists",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":     map[string]any{"type": "string"},
				"quantity": map[string]any{"type": "number"},
				"unit":     map[string]any{"type": "string"},
			},
			"required": []string{"name"},
		},
		func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
			name, err := stringArg("add_pantry_item", args, "name")
			if err != nil {
				return nil, err
			}
			quantity, err := numberArg("add_pantry_item", args, "quantity", 1)
			if err != nil {
				return nil, err
			}
			unit, err := optionalStringArg("add_pantry_item", args, "unit")
			if err != nil {
				return nil, err
			}

			return svc.Add(ctx, userID, &pantry.CreateItemRequest{
				Name:     name,
				Quantity: quantity,
				Unit:     unit,
			})
		},
	)
}

func removePantryItemTool(svc *pantry.Service) Tool {
	return NewFuncTool(
		"remove_pantry_item",
		"Remove an item from the user's pantry by name",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
			"required": []string{"name"},
		},
		func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
			name, err := stringArg("remove_pantry_item", args, "name")
			if err != nil {
				return nil, err
			}

			removed, err := svc.RemoveByName(ctx, userID, name)
			if err != nil {
				return nil, err
			}
			if !removed {
				return nil, NewToolError("remove_pantry_item",
					fmt.Sprintf("no pantry item named %q", name), CodeExecution)
			}
			return map[string]any{"removed": name}, nil
		},
	)
}

func listPantryTool(svc *pantry.Service) Tool {
	return NewFuncTool(
		"list_pantry",
		"List everything in the user's pantry",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(ctx context.Context, userID uuid.UUID, _ map[string]any) (any, error) {
			return svc.List(ctx, userID)
		},
	)
}

func findRecipesTool(svc *recipes.Service) Tool {
	return NewFuncTool(
		"find_recipes",
		"Find the user's recipes that use any of the given ingredients",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ingredients": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"ingredients"},
		},
		func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
			raw, ok := args["ingredients"].([]any)
			if !ok || len(raw) == 0 {
				return nil, NewToolError("find_recipes",
					`argument "ingredients" must be a non-empty array of strings`, CodeValidation)
			}

			params := recipes.DefaultListParams()
			for _, v := range raw {
				name, ok := v.(string)
				if !ok || name == "" {
					return nil, NewToolError("find_recipes",
						`argument "ingredients" must contain only non-empty strings`, CodeValidation)
				}
				params.Ingredients = append(params.Ingredients, name)
			}

			found, _, err := svc.ListByOwner(ctx, userID, params)
			return found, err
		},
	)
}

func addGroceryItemTool(svc *grocery.Service) Tool {
	return NewFuncTool(
		"add_grocery_item",
		"Add an item to the user's current grocery list, creating the list if needed",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":     map[string]any{"type": "string"},
				"quantity": map[string]any{"type": "number"},
				"unit":     map[string]any{"type": "string"},
			},
			"required": []string{"name"},
		},
		func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
			name, err := stringArg("add_grocery_item", args, "name")
			if err != nil {
				return nil, err
			}
			quantity, err := numberArg("add_grocery_item", args, "quantity", 1)
			if err != nil {
				return nil, err
			}
			unit, err := optionalStringArg("add_grocery_item", args, "unit")
			if err != nil {
				return nil, err
			}

			list, err := currentList(ctx, svc, userID)
			if err != nil {
				return nil, err
			}
			return svc.AddItem(ctx, list.ID, &grocery.AddItemRequest{
				Name:     name,
				Quantity: quantity,
				Unit:     unit,
			})
		},
	)
}

func planMealTool(svc *mealplan.Service) Tool {
	return NewFuncTool(
		"plan_meal",
		"Schedule a recipe for a meal slot on the user's current weekly plan",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"day":       map[string]any{"type": "string", "enum": []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}},
				"meal":      map[string]any{"type": "string", "enum": []string{"breakfast", "lunch", "dinner", "snack"}},
				"recipe_id": map[string]any{"type": "string"},
			},
			"required": []string{"day", "meal", "recipe_id"},
		},
		func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
			day, err := stringArg("plan_meal", args, "day")
			if err != nil {
				return nil, err
			}
			meal, err := stringArg("plan_meal", args, "meal")
			if err != nil {
				return nil, err
			}
			recipeStr, err := stringArg("plan_meal", args, "recipe_id")
			if err != nil {
				return nil, err
			}
			recipeID, parseErr := uuid.Parse(recipeStr)
			if parseErr != nil {
				return nil, NewToolError("plan_meal", `argument "recipe_id" must be a UUID`, CodeValidation)
			}

			plan, err := currentPlan(ctx, svc, userID)
			if err != nil {
				return nil, err
			}
			return svc.AddEntry(ctx, plan, mealplan.Entry{
				Day:      day,
				Meal:     meal,
				RecipeID: recipeID,
			})
		},
	)
}

// currentList returns the user's most recent grocery list, creating a
// default one on first use.
func currentList(ctx context.Context, svc *grocery.Service, userID uuid.UUID) (*grocery.List, error) {
	lists, err := svc.Lists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lists) > 0 {
		return lists[0], nil
	}
	return svc.CreateList(ctx, userID, &grocery.CreateListRequest{Name: "Groceries"})
}

// currentPlan returns the user's most recent meal plan, creating one for
// the current week on first use.
func currentPlan(ctx context.Context, svc *mealplan.Service, userID uuid.UUID) (*mealplan.Plan, error) {
	plans, err := svc.List(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		return plans[0], nil
	}
	return svc.Create(ctx, userID, &mealplan.CreatePlanRequest{WeekStart: weekStart(time.Now())})
}

// weekStart returns the Monday of t's week, at midnight UTC.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

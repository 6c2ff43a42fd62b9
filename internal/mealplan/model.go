package mealplan

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	WeekStart time.Time `json:"week_start"`
	Entries   []Entry   `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry schedules one recipe for one meal slot.
type Entry struct {
	Day      string    `json:"day"`
	Meal     string    `json:"meal"`
	RecipeID uuid.UUID `json:"recipe_id"`
	Servings int       `json:"servings,omitempty"`
	Note     string    `json:"note,omitempty"`
}

// PlanRow is the database representation with entries as JSONB.
type PlanRow struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	WeekStart time.Time
	Entries   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreatePlanRequest struct {
	WeekStart time.Time `json:"week_start" validate:"required"`
	Entries   []Entry   `json:"entries" validate:"dive"`
}

type UpdatePlanRequest struct {
	Entries []Entry `json:"entries" validate:"required,dive"`
}

var validDays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

var validMeals = map[string]bool{
	"breakfast": true, "lunch": true, "dinner": true, "snack": true,
}

// Validate checks entry slots beyond what struct tags can express.
func (e Entry) Validate() bool {
	return validDays[e.Day] && validMeals[e.Meal] && e.RecipeID != uuid.Nil
}

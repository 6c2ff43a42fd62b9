package recipes

import (
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID           uuid.UUID    `json:"id"`
	OwnerUserID  uuid.UUID    `json:"owner_user_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Tags         []string     `json:"tags,omitempty"`
	PrepMinutes  int          `json:"prep_minutes"`
	CookMinutes  int          `json:"cook_minutes"`
	Servings     int          `json:"servings"`
	AvgRating    float64      `json:"avg_rating"`
	RatingCount  int          `json:"rating_count"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
}

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Optional bool    `json:"optional,omitempty"`
}

// RecipeRow is the database representation: ingredients and instructions as
// JSONB, the embedding as a pgvector column.
type RecipeRow struct {
	ID           uuid.UUID
	OwnerUserID  uuid.UUID
	Title        string
	Description  string
	Ingredients  []byte
	Instructions []byte
	Tags         []string
	PrepMinutes  int
	CookMinutes  int
	Servings     int
	Embedding    []float32
	AvgRating    float64
	RatingCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

type Rating struct {
	RecipeID  uuid.UUID `json:"recipe_id"`
	UserID    uuid.UUID `json:"user_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRecipeRequest struct {
	Title        string       `json:"title" validate:"required,min=1,max=255"`
	Description  string       `json:"description" validate:"max=2000"`
	Ingredients  []Ingredient `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []string     `json:"instructions" validate:"required,min=1"`
	Tags         []string     `json:"tags" validate:"omitempty,dive,max=50"`
	PrepMinutes  int          `json:"prep_minutes" validate:"min=0"`
	CookMinutes  int          `json:"cook_minutes" validate:"min=0"`
	Servings     int          `json:"servings" validate:"min=0"`
}

type UpdateRecipeRequest struct {
	Title        *string       `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string       `json:"description" validate:"omitempty,max=2000"`
	Ingredients  *[]Ingredient `json:"ingredients" validate:"omitempty,min=1,dive"`
	Instructions *[]string     `json:"instructions" validate:"omitempty,min=1"`
	Tags         *[]string     `json:"tags" validate:"omitempty,dive,max=50"`
	PrepMinutes  *int          `json:"prep_minutes" validate:"omitempty,min=0"`
	CookMinutes  *int          `json:"cook_minutes" validate:"omitempty,min=0"`
	Servings     *int          `json:"servings" validate:"omitempty,min=0"`
}

type RateRecipeRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type ListRecipesParams struct {
	Page        int
	PageSize    int
	Ingredients []string
	Tag         string
}

func DefaultListParams() ListRecipesParams {
	return ListRecipesParams{
		Page:     1,
		PageSize: 20,
	}
}

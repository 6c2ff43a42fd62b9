package recipes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Embedder turns recipe text into a vector for similarity search. A nil
// embedder disables embeddings; recipes are stored without one and excluded
// from similar-recipe results.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	repo     Repository
	embedder Embedder
}

func NewService(repo Repository, embedder Embedder) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
	}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateRecipeRequest) (*Recipe, error) {
	now := time.Now()
	recipe := &Recipe{
		ID:           uuid.New(),
		OwnerUserID:  ownerID,
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Tags:         req.Tags,
		PrepMinutes:  req.PrepMinutes,
		CookMinutes:  req.CookMinutes,
		Servings:     req.Servings,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	row, err := recipeToRow(recipe)
	if err != nil {
		return nil, err
	}
	row.Embedding = s.embed(ctx, recipe)

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Recipe, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}
	return rowToRecipe(row)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID, params ListRecipesParams) ([]*Recipe, int64, error) {
	rows, count, err := s.repo.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*Recipe, 0, len(rows))
	for _, row := range rows {
		recipe, err := rowToRecipe(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, recipe)
	}
	return out, count, nil
}

func (s *Service) Update(ctx context.Context, recipe *Recipe, req *UpdateRecipeRequest) (*Recipe, error) {
	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.Ingredients != nil {
		recipe.Ingredients = *req.Ingredients
	}
	if req.Instructions != nil {
		recipe.Instructions = *req.Instructions
	}
	if req.Tags != nil {
		recipe.Tags = *req.Tags
	}
	if req.PrepMinutes != nil {
		recipe.PrepMinutes = *req.PrepMinutes
	}
	if req.CookMinutes != nil {
		recipe.CookMinutes = *req.CookMinutes
	}
	if req.Servings != nil {
		recipe.Servings = *req.Servings
	}
	recipe.UpdatedAt = time.Now()

	row, err := recipeToRow(recipe)
	if err != nil {
		return nil, err
	}
	row.Embedding = s.embed(ctx, recipe)

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

// FindSimilar returns up to limit recipes closest in embedding space to the
// given recipe, scoped to the same owner.
func (s *Service) FindSimilar(ctx context.Context, recipe *Recipe, limit int) ([]*Recipe, error) {
	if s.embedder == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	embedding, err := s.embedder.Embed(ctx, embeddingText(recipe))
	if err != nil {
		return nil, fmt.Errorf("embedding recipe: %w", err)
	}

	rows, err := s.repo.SearchSimilar(ctx, recipe.OwnerUserID, embedding, recipe.ID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*Recipe, 0, len(rows))
	for _, row := range rows {
		similar, err := rowToRecipe(row)
		if err != nil {
			return nil, err
		}
		out = append(out, similar)
	}
	return out, nil
}

func (s *Service) Rate(ctx context.Context, recipeID, userID uuid.UUID, req *RateRecipeRequest) (*Rating, error) {
	now := time.Now()
	rating := &Rating{
		RecipeID:  recipeID,
		UserID:    userID,
		Score:     req.Score,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.UpsertRating(ctx, rating); err != nil {
		return nil, err
	}
	if err := s.repo.RefreshRatingStats(ctx, recipeID); err != nil {
		return nil, err
	}
	return rating, nil
}

// embed computes the recipe's embedding, logging and continuing on failure
// since a missing vector only degrades similarity search.
func (s *Service) embed(ctx context.Context, recipe *Recipe) []float32 {
	if s.embedder == nil {
		return nil
	}
	embedding, err := s.embedder.Embed(ctx, embeddingText(recipe))
	if err != nil {
		slog.Warn("embedding recipe", "recipe_id", recipe.ID, "error", err)
		return nil
	}
	return embedding
}

func embeddingText(recipe *Recipe) string {
	names := make([]string, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		names = append(names, ing.Name)
	}
	return fmt.Sprintf("%s\n%s\nIngredients: %s",
		recipe.Title, recipe.Description, strings.Join(names, ", "))
}

func recipeToRow(recipe *Recipe) (*RecipeRow, error) {
	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("marshaling ingredients: %w", err)
	}
	instructions, err := json.Marshal(recipe.Instructions)
	if err != nil {
		return nil, fmt.Errorf("marshaling instructions: %w", err)
	}

	return &RecipeRow{
		ID:           recipe.ID,
		OwnerUserID:  recipe.OwnerUserID,
		Title:        recipe.Title,
		Description:  recipe.Description,
		Ingredients:  ingredients,
		Instructions: instructions,
		Tags:         recipe.Tags,
		PrepMinutes:  recipe.PrepMinutes,
		CookMinutes:  recipe.CookMinutes,
		Servings:     recipe.Servings,
		AvgRating:    recipe.AvgRating,
		RatingCount:  recipe.RatingCount,
		CreatedAt:    recipe.CreatedAt,
		UpdatedAt:    recipe.UpdatedAt,
		DeletedAt:    recipe.DeletedAt,
	}, nil
}

func rowToRecipe(row *RecipeRow) (*Recipe, error) {
	recipe := &Recipe{
		ID:          row.ID,
		OwnerUserID: row.OwnerUserID,
		Title:       row.Title,
		Description: row.Description,
		Tags:        row.Tags,
		PrepMinutes: row.PrepMinutes,
		CookMinutes: row.CookMinutes,
		Servings:    row.Servings,
		AvgRating:   row.AvgRating,
		RatingCount: row.RatingCount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		DeletedAt:   row.DeletedAt,
	}
	if err := json.Unmarshal(row.Ingredients, &recipe.Ingredients); err != nil {
		return nil, fmt.Errorf("unmarshaling ingredients: %w", err)
	}
	if err := json.Unmarshal(row.Instructions, &recipe.Instructions); err != nil {
		return nil, fmt.Errorf("unmarshaling instructions: %w", err)
	}
	return recipe, nil
}

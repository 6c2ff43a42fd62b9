package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type Repository interface {
	Create(ctx context.Context, row *RecipeRow) error
	GetByID(ctx context.Context, id uuid.UUID) (*RecipeRow, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params ListRecipesParams) ([]*RecipeRow, int64, error)
	Update(ctx context.Context, row *RecipeRow) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SearchSimilar(ctx context.Context, ownerID uuid.UUID, embedding []float32, excludeID uuid.UUID, limit int) ([]*RecipeRow, error)
	UpsertRating(ctx context.Context, rating *Rating) error
	RefreshRatingStats(ctx context.Context, recipeID uuid.UUID) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const recipeColumns = `id, owner_user_id, title, description, ingredients, instructions, tags,
	prep_minutes, cook_minutes, servings, avg_rating, rating_count, created_at, updated_at, deleted_at`

func (r *postgresRepository) Create(ctx context.Context, row *RecipeRow) error {
	query := `
		INSERT INTO recipes (id, owner_user_id, title, description, ingredients, instructions, tags,
			prep_minutes, cook_minutes, servings, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		row.ID, row.OwnerUserID, row.Title, row.Description,
		row.Ingredients, row.Instructions, row.Tags,
		row.PrepMinutes, row.CookMinutes, row.Servings,
		embeddingArg(row.Embedding), row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting recipe: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*RecipeRow, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1 AND deleted_at IS NULL`

	row := &RecipeRow{}
	err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(row)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying recipe by id: %w", err)
	}
	return row, nil
}

// ListByOwner returns one page of the owner's recipes plus the total match
// count. Ingredient filtering matches recipes using any of the given names.
func (r *postgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params ListRecipesParams) ([]*RecipeRow, int64, error) {
	where := `WHERE owner_user_id = $1 AND deleted_at IS NULL`
	args := []any{ownerID}

	if len(params.Ingredients) > 0 {
		lowered := make([]string, len(params.Ingredients))
		for i, ing := range params.Ingredients {
			lowered[i] = strings.ToLower(ing)
		}
		args = append(args, lowered)
		where += fmt.Sprintf(`
			AND EXISTS (SELECT 1 FROM jsonb_array_elements(ingredients) ing
			            WHERE lower(ing->>'name') = ANY($%d))`, len(args))
	}
	if params.Tag != "" {
		args = append(args, params.Tag)
		where += fmt.Sprintf(` AND $%d = ANY(tags)`, len(args))
	}

	var count int64
	countQuery := `SELECT COUNT(*) FROM recipes ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("counting recipes: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM recipes %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		recipeColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing recipes: %w", err)
	}
	defer rows.Close()

	var out []*RecipeRow
	for rows.Next() {
		row := &RecipeRow{}
		if err := rows.Scan(scanTargets(row)...); err != nil {
			return nil, 0, fmt.Errorf("scanning recipe row: %w", err)
		}
		out = append(out, row)
	}
	return out, count, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, row *RecipeRow) error {
	query := `
		UPDATE recipes
		SET title = $2, description = $3, ingredients = $4, instructions = $5, tags = $6,
			prep_minutes = $7, cook_minutes = $8, servings = $9, embedding = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query,
		row.ID, row.Title, row.Description, row.Ingredients, row.Instructions, row.Tags,
		row.PrepMinutes, row.CookMinutes, row.Servings, embeddingArg(row.Embedding), row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("recipe not found or already deleted")
	}
	return nil
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE recipes SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft deleting recipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("recipe not found or already deleted")
	}
	return nil
}

func (r *postgresRepository) SearchSimilar(ctx context.Context, ownerID uuid.UUID, embedding []float32, excludeID uuid.UUID, limit int) ([]*RecipeRow, error) {
	vec := pgvector.NewVector(embedding)
	query := `SELECT ` + recipeColumns + `
		FROM recipes
		WHERE owner_user_id = $1 AND deleted_at IS NULL
		  AND id != $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> $3
		LIMIT $4`

	rows, err := r.pool.Query(ctx, query, ownerID, excludeID, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("searching similar recipes: %w", err)
	}
	defer rows.Close()

	var out []*RecipeRow
	for rows.Next() {
		row := &RecipeRow{}
		if err := rows.Scan(scanTargets(row)...); err != nil {
			return nil, fmt.Errorf("scanning similar recipe: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *postgresRepository) UpsertRating(ctx context.Context, rating *Rating) error {
	query := `
		INSERT INTO recipe_ratings (recipe_id, user_id, score, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (recipe_id, user_id)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		rating.RecipeID, rating.UserID, rating.Score, rating.Comment,
		rating.CreatedAt, rating.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting rating: %w", err)
	}
	return nil
}

// RefreshRatingStats recomputes the denormalized average and count after a
// rating changes.
func (r *postgresRepository) RefreshRatingStats(ctx context.Context, recipeID uuid.UUID) error {
	query := `
		UPDATE recipes
		SET avg_rating = COALESCE(stats.avg, 0), rating_count = COALESCE(stats.cnt, 0)
		FROM (SELECT AVG(score)::float8 AS avg, COUNT(*) AS cnt
		      FROM recipe_ratings WHERE recipe_id = $1) AS stats
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, recipeID); err != nil {
		return fmt.Errorf("refreshing rating stats: %w", err)
	}
	return nil
}

func scanTargets(row *RecipeRow) []any {
	return []any{
		&row.ID, &row.OwnerUserID, &row.Title, &row.Description,
		&row.Ingredients, &row.Instructions, &row.Tags,
		&row.PrepMinutes, &row.CookMinutes, &row.Servings,
		&row.AvgRating, &row.RatingCount,
		&row.CreatedAt, &row.UpdatedAt, &row.DeletedAt,
	}
}

// embeddingArg maps an empty embedding to SQL NULL.
func embeddingArg(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

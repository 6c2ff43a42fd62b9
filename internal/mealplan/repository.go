package mealplan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, row *PlanRow) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*PlanRow, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*PlanRow, error)
	Update(ctx context.Context, row *PlanRow) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, row *PlanRow) error {
	query := `
		INSERT INTO meal_plans (id, user_id, week_start, entries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		row.ID, row.UserID, row.WeekStart, row.Entries, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting meal plan: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*PlanRow, error) {
	query := `SELECT id, user_id, week_start, entries, created_at, updated_at
		FROM meal_plans WHERE id = $1 AND user_id = $2`

	row := &PlanRow{}
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&row.ID, &row.UserID, &row.WeekStart, &row.Entries, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying meal plan: %w", err)
	}
	return row, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*PlanRow, error) {
	query := `SELECT id, user_id, week_start, entries, created_at, updated_at
		FROM meal_plans WHERE user_id = $1 ORDER BY week_start DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing meal plans: %w", err)
	}
	defer rows.Close()

	var out []*PlanRow
	for rows.Next() {
		row := &PlanRow{}
		if err := rows.Scan(&row.ID, &row.UserID, &row.WeekStart, &row.Entries, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning meal plan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, row *PlanRow) error {
	query := `UPDATE meal_plans SET entries = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, row.ID, row.UserID, row.Entries, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating meal plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("meal plan not found")
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM meal_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting meal plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("meal plan not found")
	}
	return nil
}

package pantry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*Item, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*Item, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error)
	ListExpiring(ctx context.Context, userID uuid.UUID, before time.Time) ([]*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const itemColumns = `id, user_id, name, quantity, unit, category, expires_at, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO pantry_items (id, user_id, name, quantity, unit, category, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		item.ID, item.UserID, item.Name, item.Quantity, item.Unit, item.Category,
		item.ExpiresAt, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting pantry item: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM pantry_items WHERE id = $1 AND user_id = $2`
	return r.queryOne(ctx, query, id, userID)
}

// GetByName matches case-insensitively so assistant commands find items
// regardless of how they were typed.
func (r *postgresRepository) GetByName(ctx context.Context, userID uuid.UUID, name string) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM pantry_items WHERE user_id = $1 AND lower(name) = lower($2)`
	return r.queryOne(ctx, query, userID, name)
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM pantry_items WHERE user_id = $1 ORDER BY name`
	return r.queryMany(ctx, query, userID)
}

func (r *postgresRepository) ListExpiring(ctx context.Context, userID uuid.UUID, before time.Time) ([]*Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM pantry_items
		WHERE user_id = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at`
	return r.queryMany(ctx, query, userID, before)
}

func (r *postgresRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE pantry_items
		SET name = $3, quantity = $4, unit = $5, category = $6, expires_at = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query,
		item.ID, item.UserID, item.Name, item.Quantity, item.Unit, item.Category,
		item.ExpiresAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating pantry item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pantry item not found")
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM pantry_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting pantry item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pantry item not found")
	}
	return nil
}

func (r *postgresRepository) queryOne(ctx context.Context, query string, args ...any) (*Item, error) {
	item := &Item{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Unit, &item.Category,
		&item.ExpiresAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying pantry item: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*Item, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pantry items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		err := rows.Scan(
			&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Unit, &item.Category,
			&item.ExpiresAt, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning pantry item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

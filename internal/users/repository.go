package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, row *UserRow) error
	GetByID(ctx context.Context, id uuid.UUID) (*UserRow, error)
	GetByEmail(ctx context.Context, email string) (*UserRow, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, row *UserRow) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const userColumns = `id, email, password_hash, display_name, profile, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, row *UserRow) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		row.ID, row.Email, row.PasswordHash, row.DisplayName, row.Profile,
		row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*UserRow, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*UserRow, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, row *UserRow) error {
	query := `
		UPDATE users
		SET display_name = $2, profile = $3, updated_at = $4
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, row.ID, row.DisplayName, row.Profile, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (r *postgresRepository) queryOne(ctx context.Context, query string, arg any) (*UserRow, error) {
	row := &UserRow{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&row.ID, &row.Email, &row.PasswordHash, &row.DisplayName, &row.Profile,
		&row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return row, nil
}

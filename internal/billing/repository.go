package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles subscriptions and assistant_usage PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSubscription returns the user's subscription, or nil for free-plan
// users without a row.
func (r *Repository) GetSubscription(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, plan, started_at, updated_at FROM subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&sub.UserID, &sub.Plan, &sub.StartedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching subscription: %w", err)
	}
	return &sub, nil
}

// UpsertSubscription sets the user's plan, creating the row if needed.
func (r *Repository) UpsertSubscription(ctx context.Context, userID uuid.UUID, plan string) (*Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (user_id, plan, started_at, updated_at)
		 VALUES ($1, $2, NOW(), NOW())
		 ON CONFLICT (user_id)
		 DO UPDATE SET plan = EXCLUDED.plan, updated_at = NOW()
		 RETURNING user_id, plan, started_at, updated_at`,
		userID, plan,
	).Scan(&sub.UserID, &sub.Plan, &sub.StartedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting subscription: %w", err)
	}
	return &sub, nil
}

// CallsToday returns the user's assistant call count for the given UTC day.
func (r *Repository) CallsToday(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT call_count FROM assistant_usage WHERE user_id = $1 AND day = $2`,
		userID, day,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("fetching assistant usage: %w", err)
	}
	return count, nil
}

// IncrementCalls records one assistant call for the given UTC day.
func (r *Repository) IncrementCalls(ctx context.Context, userID uuid.UUID, day time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assistant_usage (user_id, day, call_count, updated_at)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (user_id, day)
		 DO UPDATE SET call_count = assistant_usage.call_count + 1, updated_at = NOW()`,
		userID, day)
	if err != nil {
		return fmt.Errorf("incrementing assistant usage: %w", err)
	}
	return nil
}

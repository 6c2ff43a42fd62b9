package grocery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	CreateList(ctx context.Context, list *List) error
	GetList(ctx context.Context, id, userID uuid.UUID) (*List, error)
	ListsByUser(ctx context.Context, userID uuid.UUID) ([]*List, error)
	DeleteList(ctx context.Context, id, userID uuid.UUID) error
	AddItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id, listID uuid.UUID) (*Item, error)
	SetItemChecked(ctx context.Context, id, listID uuid.UUID, checked bool) error
	DeleteItem(ctx context.Context, id, listID uuid.UUID) error
	ReplaceItems(ctx context.Context, listID uuid.UUID, items []*Item) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) CreateList(ctx context.Context, list *List) error {
	query := `
		INSERT INTO grocery_lists (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		list.ID, list.UserID, list.Name, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting grocery list: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetList(ctx context.Context, id, userID uuid.UUID) (*List, error) {
	query := `SELECT id, user_id, name, created_at, updated_at
		FROM grocery_lists WHERE id = $1 AND user_id = $2`

	list := &List{}
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&list.ID, &list.UserID, &list.Name, &list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying grocery list: %w", err)
	}

	items, err := r.itemsByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	list.Items = items
	return list, nil
}

func (r *postgresRepository) ListsByUser(ctx context.Context, userID uuid.UUID) ([]*List, error) {
	query := `SELECT id, user_id, name, created_at, updated_at
		FROM grocery_lists WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing grocery lists: %w", err)
	}
	defer rows.Close()

	var lists []*List
	for rows.Next() {
		list := &List{}
		if err := rows.Scan(&list.ID, &list.UserID, &list.Name, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning grocery list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

func (r *postgresRepository) DeleteList(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM grocery_lists WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting grocery list: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("grocery list not found")
	}
	return nil
}

func (r *postgresRepository) AddItem(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO grocery_items (id, list_id, name, quantity, unit, checked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		item.ID, item.ListID, item.Name, item.Quantity, item.Unit, item.Checked,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting grocery item: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetItem(ctx context.Context, id, listID uuid.UUID) (*Item, error) {
	query := `SELECT id, list_id, name, quantity, unit, checked, created_at, updated_at
		FROM grocery_items WHERE id = $1 AND list_id = $2`

	item := &Item{}
	err := r.pool.QueryRow(ctx, query, id, listID).Scan(
		&item.ID, &item.ListID, &item.Name, &item.Quantity, &item.Unit, &item.Checked,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying grocery item: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) SetItemChecked(ctx context.Context, id, listID uuid.UUID, checked bool) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE grocery_items SET checked = $3, updated_at = NOW() WHERE id = $1 AND list_id = $2`,
		id, listID, checked)
	if err != nil {
		return fmt.Errorf("checking grocery item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("grocery item not found")
	}
	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, id, listID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM grocery_items WHERE id = $1 AND list_id = $2`, id, listID)
	if err != nil {
		return fmt.Errorf("deleting grocery item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("grocery item not found")
	}
	return nil
}

// ReplaceItems swaps a list's items atomically. Either the full new set is
// visible or the old set is untouched.
func (r *postgresRepository) ReplaceItems(ctx context.Context, listID uuid.UUID, items []*Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM grocery_items WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("clearing grocery items: %w", err)
	}

	for _, item := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO grocery_items (id, list_id, name, quantity, unit, checked, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.ListID, item.Name, item.Quantity, item.Unit, item.Checked,
			item.CreatedAt, item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting replacement item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE grocery_lists SET updated_at = NOW() WHERE id = $1`, listID); err != nil {
		return fmt.Errorf("touching grocery list: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *postgresRepository) itemsByList(ctx context.Context, listID uuid.UUID) ([]*Item, error) {
	query := `SELECT id, list_id, name, quantity, unit, checked, created_at, updated_at
		FROM grocery_items WHERE list_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("listing grocery items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		err := rows.Scan(&item.ID, &item.ListID, &item.Name, &item.Quantity, &item.Unit,
			&item.Checked, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning grocery item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

package pantry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add creates a pantry item, or tops up the quantity when the user already
// has an item with the same name.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, req *CreateItemRequest) (*Item, error) {
	existing, err := s.repo.GetByName(ctx, userID, req.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing != nil {
		existing.Quantity += req.Quantity
		if req.ExpiresAt != nil {
			existing.ExpiresAt = req.ExpiresAt
		}
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := &Item{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Category:  req.Category,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Item, error) {
	return s.repo.GetByID(ctx, id, userID)
}

func (s *Service) GetByName(ctx context.Context, userID uuid.UUID, name string) (*Item, error) {
	return s.repo.GetByName(ctx, userID, name)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListExpiring returns items expiring within the given number of days.
func (s *Service) ListExpiring(ctx context.Context, userID uuid.UUID, days int) ([]*Item, error) {
	if days <= 0 {
		days = 3
	}
	return s.repo.ListExpiring(ctx, userID, time.Now().AddDate(0, 0, days))
}

func (s *Service) Update(ctx context.Context, item *Item, req *UpdateItemRequest) (*Item, error) {
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.ExpiresAt != nil {
		item.ExpiresAt = req.ExpiresAt
	}
	item.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

// RemoveByName deletes the named item, reporting whether it existed.
func (s *Service) RemoveByName(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	item, err := s.repo.GetByName(ctx, userID, name)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	return true, s.repo.Delete(ctx, item.ID, userID)
}

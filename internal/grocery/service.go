package grocery

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

func (s *Service) CreateList(ctx context.Context, userID uuid.UUID, req *CreateListRequest) (*List, error) {
	now := time.Now()
	list := &List{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) GetList(ctx context.Context, id, userID uuid.UUID) (*List, error) {
	return s.repo.GetList(ctx, id, userID)
}

func (s *Service) Lists(ctx context.Context, userID uuid.UUID) ([]*List, error) {
	return s.repo.ListsByUser(ctx, userID)
}

func (s *Service) DeleteList(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.DeleteList(ctx, id, userID)
}

func (s *Service) AddItem(ctx context.Context, listID uuid.UUID, req *AddItemRequest) (*Item, error) {
	item := newItem(listID, req)
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) CheckItem(ctx context.Context, itemID, listID uuid.UUID, checked bool) error {
	return s.repo.SetItemChecked(ctx, itemID, listID, checked)
}

func (s *Service) DeleteItem(ctx context.Context, itemID, listID uuid.UUID) error {
	return s.repo.DeleteItem(ctx, itemID, listID)
}

// Regenerate replaces every item on the list in a single transaction, so a
// concurrent reader never observes a half-built list.
func (s *Service) Regenerate(ctx context.Context, list *List, req *RegenerateRequest) (*List, error) {
	items := make([]*Item, 0, len(req.Items))
	for i := range req.Items {
		items = append(items, newItem(list.ID, &req.Items[i]))
	}

	if err := s.repo.ReplaceItems(ctx, list.ID, items); err != nil {
		return nil, err
	}

	list.Items = items
	list.UpdatedAt = time.Now()
	return list, nil
}

func newItem(listID uuid.UUID, req *AddItemRequest) *Item {
	now := time.Now()
	return &Item{
		ID:        uuid.New(),
		ListID:    listID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

package mealplan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidEntry = fmt.Errorf("invalid meal plan entry")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreatePlanRequest) (*Plan, error) {
	for _, entry := range req.Entries {
		if !entry.Validate() {
			return nil, fmt.Errorf("%w: %s/%s", ErrInvalidEntry, entry.Day, entry.Meal)
		}
	}

	now := time.Now()
	plan := &Plan{
		ID:        uuid.New(),
		UserID:    userID,
		WeekStart: req.WeekStart,
		Entries:   req.Entries,
		CreatedAt: now,
		UpdatedAt: now,
	}

	row, err := planToRow(plan)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Plan, error) {
	row, err := s.repo.GetByID(ctx, id, userID)
	if err != nil || row == nil {
		return nil, err
	}
	return rowToPlan(row)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]*Plan, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*Plan, 0, len(rows))
	for _, row := range rows {
		plan, err := rowToPlan(row)
		if err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, plan *Plan, req *UpdatePlanRequest) (*Plan, error) {
	for _, entry := range req.Entries {
		if !entry.Validate() {
			return nil, fmt.Errorf("%w: %s/%s", ErrInvalidEntry, entry.Day, entry.Meal)
		}
	}

	plan.Entries = req.Entries
	plan.UpdatedAt = time.Now()

	row, err := planToRow(plan)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

// AddEntry schedules one recipe on an existing plan, used by the assistant's
// plan_meal tool.
func (s *Service) AddEntry(ctx context.Context, plan *Plan, entry Entry) (*Plan, error) {
	if !entry.Validate() {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidEntry, entry.Day, entry.Meal)
	}

	entries := append(append([]Entry(nil), plan.Entries...), entry)
	return s.Update(ctx, plan, &UpdatePlanRequest{Entries: entries})
}

func planToRow(plan *Plan) (*PlanRow, error) {
	entries, err := json.Marshal(plan.Entries)
	if err != nil {
		return nil, fmt.Errorf("marshaling meal plan entries: %w", err)
	}
	return &PlanRow{
		ID:        plan.ID,
		UserID:    plan.UserID,
		WeekStart: plan.WeekStart,
		Entries:   entries,
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}, nil
}

func rowToPlan(row *PlanRow) (*Plan, error) {
	plan := &Plan{
		ID:        row.ID,
		UserID:    row.UserID,
		WeekStart: row.WeekStart,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Entries) > 0 {
		if err := json.Unmarshal(row.Entries, &plan.Entries); err != nil {
			return nil, fmt.Errorf("unmarshaling meal plan entries: %w", err)
		}
	}
	return plan, nil
}

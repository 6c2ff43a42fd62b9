package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, email, passwordHash, displayName string) (*User, error) {
	now := time.Now()
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Profile:      DietaryProfile{HouseholdSize: 1},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	row, err := userToRow(user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	row, err := s.repo.GetByEmail(ctx, email)
	if err != nil || row == nil {
		return nil, err
	}
	return rowToUser(row)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}
	return rowToUser(row)
}

func (s *Service) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Restrictions != nil {
		user.Profile.Restrictions = *req.Restrictions
	}
	if req.Allergies != nil {
		user.Profile.Allergies = *req.Allergies
	}
	if req.HouseholdSize != nil {
		user.Profile.HouseholdSize = *req.HouseholdSize
	}
	user.UpdatedAt = time.Now()

	row, err := userToRow(user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, row); err != nil {
		return nil, err
	}
	return user, nil
}

func userToRow(user *User) (*UserRow, error) {
	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, fmt.Errorf("marshaling dietary profile: %w", err)
	}
	return &UserRow{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		DisplayName:  user.DisplayName,
		Profile:      profile,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}, nil
}

func rowToUser(row *UserRow) (*User, error) {
	user := &User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		DisplayName:  row.DisplayName,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Profile) > 0 {
		if err := json.Unmarshal(row.Profile, &user.Profile); err != nil {
			return nil, fmt.Errorf("unmarshaling dietary profile: %w", err)
		}
	}
	return user, nil
}

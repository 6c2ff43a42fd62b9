package users

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	DisplayName  string         `json:"display_name"`
	Profile      DietaryProfile `json:"profile"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DietaryProfile drives recipe filtering and grocery suggestions.
type DietaryProfile struct {
	Restrictions  []string `json:"restrictions,omitempty"`
	Allergies     []string `json:"allergies,omitempty"`
	HouseholdSize int      `json:"household_size"`
}

// UserRow is the database representation, with the profile as raw JSONB.
type UserRow struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Profile      []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UpdateProfileRequest struct {
	DisplayName   *string   `json:"display_name" validate:"omitempty,max=100"`
	Restrictions  *[]string `json:"restrictions" validate:"omitempty,dive,max=50"`
	Allergies     *[]string `json:"allergies" validate:"omitempty,dive,max=50"`
	HouseholdSize *int      `json:"household_size" validate:"omitempty,min=1,max=20"`
}

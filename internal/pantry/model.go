package pantry

import (
	"time"

	"github.com/google/uuid"
)

type Item struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit,omitempty"`
	Category  string     `json:"category,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CreateItemRequest struct {
	Name      string     `json:"name" validate:"required,min=1,max=255"`
	Quantity  float64    `json:"quantity" validate:"min=0"`
	Unit      string     `json:"unit" validate:"max=50"`
	Category  string     `json:"category" validate:"max=100"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type UpdateItemRequest struct {
	Name      *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Quantity  *float64   `json:"quantity" validate:"omitempty,min=0"`
	Unit      *string    `json:"unit" validate:"omitempty,max=50"`
	Category  *string    `json:"category" validate:"omitempty,max=100"`
	ExpiresAt *time.Time `json:"expires_at"`
}

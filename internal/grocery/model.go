package grocery

import (
	"time"

	"github.com/google/uuid"
)

type List struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Items     []*Item   `json:"items,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID        uuid.UUID `json:"id"`
	ListID    uuid.UUID `json:"list_id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
	Checked   bool      `json:"checked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateListRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type AddItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=255"`
	Quantity float64 `json:"quantity" validate:"min=0"`
	Unit     string  `json:"unit" validate:"max=50"`
}

type CheckItemRequest struct {
	Checked bool `json:"checked"`
}

// RegenerateRequest replaces a list's items wholesale, typically from a meal
// plan's missing ingredients.
type RegenerateRequest struct {
	Items []AddItemRequest `json:"items" validate:"required,dive"`
}

package billing

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Subscription matches the subscriptions table schema. Every user has at
// most one row; absence means the free plan.
type Subscription struct {
	UserID    uuid.UUID `json:"user_id"`
	Plan      string    `json:"plan"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Usage matches the assistant_usage table schema, one row per user per day.
type Usage struct {
	UserID    uuid.UUID `json:"user_id"`
	Day       time.Time `json:"day"`
	CallCount int       `json:"call_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UsageStatus is the API response showing plan and remaining allowance.
type UsageStatus struct {
	Plan           string `json:"plan"`
	CallsToday     int    `json:"calls_today"`
	DailyLimit     int    `json:"daily_limit"`
	CallsRemaining int    `json:"calls_remaining"`
	BurstUsed      int    `json:"burst_used"`
	BurstLimit     int    `json:"burst_limit"`
}

type ChangePlanRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free premium"`
}

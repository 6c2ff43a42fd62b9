package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mysticbob/nochickenleftbehind/internal/config"
)

// ErrAllowanceExhausted wraps every deny decision so callers can map it to a
// 429 without string matching.
type ErrAllowanceExhausted struct {
	Reason string
}

func (e *ErrAllowanceExhausted) Error() string {
	return e.Reason
}

// Service decides whether an assistant call is allowed: a Redis sliding
// window caps bursts, and PostgreSQL tracks the per-plan daily allowance.
// Infrastructure failures fail open so billing never takes chat down.
type Service struct {
	repo    *Repository
	limiter *BurstLimiter
	cfg     config.BillingConfig
	now     func() time.Time
}

func NewService(repo *Repository, limiter *BurstLimiter, cfg config.BillingConfig) *Service {
	return &Service{
		repo:    repo,
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
	}
}

// CheckAssistantAllowance returns nil when the user may make an assistant
// call right now.
func (s *Service) CheckAssistantAllowance(ctx context.Context, userID uuid.UUID) error {
	allowed, err := s.limiter.CheckAndIncrement(ctx, userID, s.cfg.MaxCallsPerMinute)
	if err != nil {
		slog.Warn("billing: burst limiter check failed, allowing request", "error", err)
	} else if !allowed {
		return &ErrAllowanceExhausted{
			Reason: fmt.Sprintf("too many requests: max %d assistant calls per minute", s.cfg.MaxCallsPerMinute),
		}
	}

	limit, plan, err := s.dailyLimit(ctx, userID)
	if err != nil {
		slog.Warn("billing: failed to resolve plan, allowing request", "error", err)
		return nil
	}

	calls, err := s.repo.CallsToday(ctx, userID, s.today())
	if err != nil {
		slog.Warn("billing: failed to read usage, allowing request", "error", err)
		return nil
	}
	if calls >= limit {
		return &ErrAllowanceExhausted{
			Reason: fmt.Sprintf("daily assistant limit reached: %d/%d calls on the %s plan", calls, limit, plan),
		}
	}

	return nil
}

// RecordCall counts one completed assistant call against today's allowance.
func (s *Service) RecordCall(ctx context.Context, userID uuid.UUID) error {
	return s.repo.IncrementCalls(ctx, userID, s.today())
}

// GetStatus returns the user's plan and remaining allowance for API display.
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID) (*UsageStatus, error) {
	limit, plan, err := s.dailyLimit(ctx, userID)
	if err != nil {
		return nil, err
	}

	calls, err := s.repo.CallsToday(ctx, userID, s.today())
	if err != nil {
		return nil, err
	}

	burst, err := s.limiter.Usage(ctx, userID)
	if err != nil {
		slog.Warn("billing: failed to get burst usage", "error", err)
		burst = 0
	}

	remaining := limit - calls
	if remaining < 0 {
		remaining = 0
	}

	return &UsageStatus{
		Plan:           plan,
		CallsToday:     calls,
		DailyLimit:     limit,
		CallsRemaining: remaining,
		BurstUsed:      burst,
		BurstLimit:     s.cfg.MaxCallsPerMinute,
	}, nil
}

// ChangePlan switches the user between free and premium.
func (s *Service) ChangePlan(ctx context.Context, userID uuid.UUID, plan string) (*Subscription, error) {
	if plan != PlanFree && plan != PlanPremium {
		return nil, fmt.Errorf("unknown plan %q", plan)
	}
	return s.repo.UpsertSubscription(ctx, userID, plan)
}

func (s *Service) dailyLimit(ctx context.Context, userID uuid.UUID) (int, string, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return 0, "", err
	}
	if sub != nil && sub.Plan == PlanPremium {
		return s.cfg.PremiumDailyCalls, PlanPremium, nil
	}
	return s.cfg.FreeDailyCalls, PlanFree, nil
}

func (s *Service) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// JWT secrets
	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}
	if len(c.JWT.RefreshSecret) < 32 {
		errs = append(errs, "JWT_REFRESH_SECRET must be at least 32 characters")
	}
	if c.JWT.AccessSecret != "" && c.JWT.RefreshSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Conversation timers must make sense relative to each other
	if c.Conversation.SessionTimeout <= 0 {
		errs = append(errs, "CONVERSATION_SESSION_TIMEOUT must be positive")
	}
	if c.Conversation.EvictionAfter <= c.Conversation.SessionTimeout {
		errs = append(errs, "CONVERSATION_EVICTION_AFTER must exceed CONVERSATION_SESSION_TIMEOUT")
	}
	if c.Conversation.JanitorInterval <= 0 {
		errs = append(errs, "CONVERSATION_JANITOR_INTERVAL must be positive")
	}

	if c.Billing.FreeDailyCalls > c.Billing.PremiumDailyCalls {
		errs = append(errs, "BILLING_FREE_DAILY_CALLS must not exceed BILLING_PREMIUM_DAILY_CALLS")
	}

	// OpenAI key: warn only, the assistant degrades to tool-only responses
	if c.OpenAI.APIKey == "" {
		slog.Warn("OPENAI_API_KEY is empty — assistant replies will be tool output only")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

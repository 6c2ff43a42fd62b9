package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server       ServerConfig
	DB           DBConfig
	Redis        RedisConfig
	NATS         NATSConfig
	JWT          JWTConfig
	OpenAI       OpenAIConfig
	Conversation ConversationConfig
	Billing      BillingConfig
	CORS         CORSConfig
	Log          LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxRetries  int
	RetryBase   time.Duration
	RetryCap    time.Duration
	CallTimeout time.Duration
}

// ConversationConfig tunes the in-process conversation context store.
type ConversationConfig struct {
	SessionTimeout  time.Duration
	EvictionAfter   time.Duration
	JanitorInterval time.Duration
}

type BillingConfig struct {
	FreeDailyCalls    int
	PremiumDailyCalls int
	MaxCallsPerMinute int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		JWT: JWTConfig{
			AccessSecret:  k.String("jwt.access.secret"),
			RefreshSecret: k.String("jwt.refresh.secret"),
		},
		OpenAI: OpenAIConfig{
			APIKey:     k.String("openai.api.key"),
			Model:      k.String("openai.model"),
			MaxRetries: k.Int("openai.max.retries"),
		},
		Billing: BillingConfig{
			FreeDailyCalls:    k.Int("billing.free.daily.calls"),
			PremiumDailyCalls: k.Int("billing.premium.daily.calls"),
			MaxCallsPerMinute: k.Int("billing.max.calls.per.minute"),
		},
		CORS: CORSConfig{
			AllowedOrigins: k.Strings("cors.allowed.origins"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "nclb"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "nclb"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.MaxRetries == 0 {
		cfg.OpenAI.MaxRetries = 3
	}
	if cfg.Billing.FreeDailyCalls == 0 {
		cfg.Billing.FreeDailyCalls = 20
	}
	if cfg.Billing.PremiumDailyCalls == 0 {
		cfg.Billing.PremiumDailyCalls = 500
	}
	if cfg.Billing.MaxCallsPerMinute == 0 {
		cfg.Billing.MaxCallsPerMinute = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	durations := []struct {
		dst      *time.Duration
		key      string
		fallback string
	}{
		{&cfg.JWT.AccessExpiry, "jwt.access.expiry", "15m"},
		{&cfg.JWT.RefreshExpiry, "jwt.refresh.expiry", "168h"},
		{&cfg.OpenAI.RetryBase, "openai.retry.base", "250ms"},
		{&cfg.OpenAI.RetryCap, "openai.retry.cap", "4s"},
		{&cfg.OpenAI.CallTimeout, "openai.call.timeout", "30s"},
		{&cfg.Conversation.SessionTimeout, "conversation.session.timeout", "30m"},
		{&cfg.Conversation.EvictionAfter, "conversation.eviction.after", "24h"},
		{&cfg.Conversation.JanitorInterval, "conversation.janitor.interval", "1h"},
	}
	for _, d := range durations {
		raw := k.String(d.key)
		if raw == "" {
			raw = d.fallback
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

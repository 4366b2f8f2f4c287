package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Ticketing    TicketingConfig
	Conversation ConversationConfig
	Retry        RetryConfig
	Canvas       CanvasConfig
	Admin        AdminConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// RedisConfig holds Redis connection values. An empty Addr disables the metadata cache.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// TicketingConfig points at the ticketing REST API and holds ticket defaults.
type TicketingConfig struct {
	BaseURL           string
	APIKey            string
	PortalURL         string
	DefaultMailboxID  int64
	DefaultStatusID   int64
	DefaultPriorityID int64
	SourceCode        int64
	ProductID         int64
	RecentLimit       int
	RateLimitPerSec   float64
}

// ConversationConfig points at the messaging platform's conversation API.
type ConversationConfig struct {
	BaseURL  string
	Token    string
	AdminID  string
	InboxURL string
}

// RetryConfig is the policy applied to every outbound call.
type RetryConfig struct {
	MaxRetries       int
	BaseDelayMillis  int
	MaxDelayMillis   int
	JitterRatio      float64
	AttemptTimeoutMs int
}

// CanvasConfig tunes the submission response race and request verification.
type CanvasConfig struct {
	ResponseDeadlineMillis int
	DeadlineMarginMillis   int
	FallbackBudgetMillis   int
	StaleAfterSeconds      int
	ClientSecret           string
}

// AdminConfig protects the operator endpoints.
type AdminConfig struct {
	JWTSecret string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	rateLimit, err := strconv.ParseFloat(getEnv("TICKETING_RATE_LIMIT_PER_SECOND", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TICKETING_RATE_LIMIT_PER_SECOND: %w", err)
	}
	jitter, err := strconv.ParseFloat(getEnv("RETRY_JITTER_RATIO", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_JITTER_RATIO: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-canvas"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Redis: RedisConfig{
			Addr:            os.Getenv("REDIS_ADDR"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			CacheTTLSeconds: getEnvAsInt("METADATA_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Ticketing: TicketingConfig{
			BaseURL:           strings.TrimRight(os.Getenv("TICKETING_BASE_URL"), "/"),
			APIKey:            os.Getenv("TICKETING_API_KEY"),
			PortalURL:         strings.TrimRight(os.Getenv("TICKETING_PORTAL_URL"), "/"),
			DefaultMailboxID:  getEnvAsInt64("TICKETING_DEFAULT_MAILBOX_ID", 0),
			DefaultStatusID:   getEnvAsInt64("TICKETING_DEFAULT_STATUS_ID", 2),
			DefaultPriorityID: getEnvAsInt64("TICKETING_DEFAULT_PRIORITY_ID", 1),
			SourceCode:        getEnvAsInt64("TICKETING_SOURCE_CODE", 7),
			ProductID:         getEnvAsInt64("TICKETING_PRODUCT_ID", 0),
			RecentLimit:       getEnvAsInt("TICKETING_RECENT_LIMIT", 5),
			RateLimitPerSec:   rateLimit,
		},
		Conversation: ConversationConfig{
			BaseURL:  strings.TrimRight(getEnv("CONVERSATION_BASE_URL", "https://api.intercom.io"), "/"),
			Token:    os.Getenv("CONVERSATION_TOKEN"),
			AdminID:  os.Getenv("CONVERSATION_ADMIN_ID"),
			InboxURL: strings.TrimRight(os.Getenv("CONVERSATION_INBOX_URL"), "/"),
		},
		Retry: RetryConfig{
			MaxRetries:       getEnvAsInt("RETRY_MAX_RETRIES", 3),
			BaseDelayMillis:  getEnvAsInt("RETRY_BASE_DELAY_MS", 500),
			MaxDelayMillis:   getEnvAsInt("RETRY_MAX_DELAY_MS", 10000),
			JitterRatio:      jitter,
			AttemptTimeoutMs: getEnvAsInt("RETRY_ATTEMPT_TIMEOUT_MS", 10000),
		},
		Canvas: CanvasConfig{
			ResponseDeadlineMillis: getEnvAsInt("CANVAS_RESPONSE_DEADLINE_MS", 9000),
			DeadlineMarginMillis:   getEnvAsInt("CANVAS_DEADLINE_MARGIN_MS", 1000),
			FallbackBudgetMillis:   getEnvAsInt("CANVAS_FALLBACK_BUDGET_MS", 500),
			StaleAfterSeconds:      getEnvAsInt("CANVAS_STALE_AFTER_SECONDS", 120),
			ClientSecret:           os.Getenv("CANVAS_CLIENT_SECRET"),
		},
		Admin: AdminConfig{
			JWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		},
	}

	if cfg.Ticketing.BaseURL == "" {
		return nil, fmt.Errorf("TICKETING_BASE_URL is required")
	}
	if cfg.Ticketing.PortalURL == "" {
		cfg.Ticketing.PortalURL = cfg.Ticketing.BaseURL
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns how long metadata lookups stay cached.
func (r RedisConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

func (c CanvasConfig) ResponseDeadline() time.Duration {
	return time.Duration(c.ResponseDeadlineMillis) * time.Millisecond
}

func (c CanvasConfig) DeadlineMargin() time.Duration {
	return time.Duration(c.DeadlineMarginMillis) * time.Millisecond
}

func (c CanvasConfig) FallbackBudget() time.Duration {
	return time.Duration(c.FallbackBudgetMillis) * time.Millisecond
}

func (c CanvasConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

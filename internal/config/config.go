package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Run modes for the Telegram transport.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string
	Port     string

	TelegramBotToken   string
	TelegramAPIBaseURL string
	TelegramMode       string
	WebhookURL         string
	AdminChatID        int64

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	LLMMaxTokens     int
	LLMMaxRetries    int

	SystemPromptPath string
	PriceListPath    string
	WelcomeMessage   string
	RateLimitMessage string
	ApologyMessage   string

	RateLimitRequests int
	RateLimitPeriod   time.Duration

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),

		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIBaseURL: getEnv("TELEGRAM_API_BASE_URL", ""),
		TelegramMode:       strings.ToLower(strings.TrimSpace(getEnv("TELEGRAM_MODE", ModePolling))),
		WebhookURL:         getEnv("WEBHOOK_URL", ""),
		AdminChatID:        getEnvAsInt64("ADMIN_CHAT_ID", 0),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
		LLMMaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 1500),
		LLMMaxRetries:    getEnvAsInt("LLM_MAX_RETRIES", 1),

		SystemPromptPath: getEnv("SYSTEM_PROMPT_PATH", "config/system_prompt.md"),
		PriceListPath:    getEnv("PRICE_LIST_PATH", "config/price_list.csv"),
		WelcomeMessage: getEnv("WELCOME_MESSAGE",
			"Hello! I am the auto service assistant. Tell me about your car and what it needs, and I will help with prices and booking."),
		RateLimitMessage: getEnv("RATE_LIMIT_MESSAGE",
			"You are sending too many messages. Please wait a moment."),
		ApologyMessage: getEnv("APOLOGY_MESSAGE",
			"An error occurred while processing your message. Please try again later."),

		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitPeriod:   getEnvAsDuration("RATE_LIMIT_PERIOD", time.Minute),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

// Validate checks required settings and referenced files before startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return errors.New("config: TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramMode != ModePolling && c.TelegramMode != ModeWebhook {
		return fmt.Errorf("config: TELEGRAM_MODE must be %q or %q, got %q", ModePolling, ModeWebhook, c.TelegramMode)
	}
	if c.TelegramMode == ModeWebhook && strings.TrimSpace(c.WebhookURL) == "" {
		return errors.New("config: WEBHOOK_URL is required in webhook mode")
	}
	if strings.TrimSpace(c.AnthropicAPIKey) == "" {
		return errors.New("config: ANTHROPIC_API_KEY is required")
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitPeriod <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_PERIOD must be positive, got %s", c.RateLimitPeriod)
	}
	for _, f := range []struct{ name, path string }{
		{"SYSTEM_PROMPT_PATH", c.SystemPromptPath},
		{"PRICE_LIST_PATH", c.PriceListPath},
	} {
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("config: %s points to an unreadable file %q: %w", f.name, f.path, err)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

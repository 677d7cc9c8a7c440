package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TELEGRAM_MODE", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.TelegramMode != ModePolling {
		t.Fatalf("expected polling mode by default, got %s", cfg.TelegramMode)
	}
	if cfg.RateLimitRequests != 10 {
		t.Fatalf("expected default rate limit, got %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitPeriod != time.Minute {
		t.Fatalf("expected default rate period, got %s", cfg.RateLimitPeriod)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("TELEGRAM_MODE", "Webhook")
	t.Setenv("ADMIN_CHAT_ID", "-1001234567890")
	t.Setenv("RATE_LIMIT_REQUESTS", "3")
	t.Setenv("RATE_LIMIT_PERIOD", "30s")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port override, got %s", cfg.Port)
	}
	if cfg.TelegramMode != ModeWebhook {
		t.Fatalf("expected normalized webhook mode, got %s", cfg.TelegramMode)
	}
	if cfg.AdminChatID != -1001234567890 {
		t.Fatalf("expected admin chat id, got %d", cfg.AdminChatID)
	}
	if cfg.RateLimitRequests != 3 {
		t.Fatalf("expected rate limit override, got %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitPeriod != 30*time.Second {
		t.Fatalf("expected rate period override, got %s", cfg.RateLimitPeriod)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	prompt := filepath.Join(dir, "prompt.md")
	prices := filepath.Join(dir, "prices.csv")
	if err := os.WriteFile(prompt, []byte("You are an assistant."), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prices, []byte("Service,1,2,3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	valid := &Config{
		TelegramBotToken:  "token",
		TelegramMode:      ModePolling,
		AnthropicAPIKey:   "key",
		RateLimitRequests: 10,
		RateLimitPeriod:   time.Minute,
		SystemPromptPath:  prompt,
		PriceListPath:     prices,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	missingToken := *valid
	missingToken.TelegramBotToken = " "
	if err := missingToken.Validate(); err == nil {
		t.Fatal("expected error for missing telegram token")
	}

	badMode := *valid
	badMode.TelegramMode = "carrier-pigeon"
	if err := badMode.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}

	webhookNoURL := *valid
	webhookNoURL.TelegramMode = ModeWebhook
	if err := webhookNoURL.Validate(); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}

	missingPrices := *valid
	missingPrices.PriceListPath = filepath.Join(dir, "nope.csv")
	if err := missingPrices.Validate(); err == nil {
		t.Fatal("expected error for missing price list file")
	}
}

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// ParseModeMarkdown is the parse mode used for every outbound message.
const ParseModeMarkdown = "Markdown"

// Config controls how the Bot API client behaves.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client wraps the Telegram Bot API methods the bot needs.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// NewClient creates a configured Client with sane defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			// Long polling holds the connection open, so the client
			// timeout must exceed the poll timeout.
			timeout = 65 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}, nil
}

// GetMe verifies the token and returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	data, err := c.invoke(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("telegram: decode getMe: %w", err)
	}
	return &user, nil
}

// SendMessage delivers text to a chat using Markdown formatting.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("telegram: message text required")
	}
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": ParseModeMarkdown,
	}
	data, err := c.invoke(ctx, "sendMessage", payload)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("telegram: decode sendMessage: %w", err)
	}
	return &msg, nil
}

// GetUpdates long-polls for new updates past offset. timeout is in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message"},
	}
	data, err := c.invoke(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(data, &updates); err != nil {
		return nil, fmt.Errorf("telegram: decode getUpdates: %w", err)
	}
	return updates, nil
}

// SetWebhook points the Bot API at our webhook endpoint.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("telegram: webhook url required")
	}
	_, err := c.invoke(ctx, "setWebhook", map[string]any{"url": url})
	return err
}

// DeleteWebhook switches the bot back to polling delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.invoke(ctx, "deleteWebhook", nil)
	return err
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// APIError is a Bot API level failure (ok=false).
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: api error %d: %s", e.Code, e.Description)
}

func (c *Client) invoke(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal %s payload: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("telegram: build %s request: %w", method, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !retryable(0, err) || attempt == c.maxRetries {
				return nil, fmt.Errorf("telegram: %s http error: %w", method, err)
			}
			lastErr = err
			c.logRetry(method, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("telegram: read %s response: %w", method, readErr)
		}

		var parsed apiResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("telegram: decode %s response: %w", method, err)
		}
		if parsed.OK {
			return parsed.Result, nil
		}
		apiErr := &APIError{Code: parsed.ErrorCode, Description: parsed.Description}
		if attempt < c.maxRetries && retryable(parsed.ErrorCode, nil) {
			lastErr = apiErr
			c.logRetry(method, attempt, parsed.ErrorCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("telegram: %s failed without response", method)
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.backoff * time.Duration(1<<attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(method string, attempt, status int, err error) {
	c.logger.Warn("telegram retry", "method", method, "attempt", attempt+1, "status", status, "error", err)
}

func retryable(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

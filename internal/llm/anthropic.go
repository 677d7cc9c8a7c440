package llm

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

	"github.com/dapi/neurozeh-auto-service-bot/internal/conversation"
	"github.com/dapi/neurozeh-auto-service-bot/internal/leads"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// serviceRequestTool is how the model reports a detected service
	// request instead of guessing from reply wording.
	serviceRequestTool = "detect_service_request"
)

// Config controls how the Anthropic client behaves.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	MaxTokens    int
	MaxRetries   int
	Backoff      time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// AnthropicClient implements Client over the Anthropic Messages API.
type AnthropicClient struct {
	apiKey       string
	baseURL      string
	model        string
	systemPrompt string
	maxTokens    int
	maxRetries   int
	backoff      time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewAnthropicClient creates a configured client with sane defaults.
func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: API key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm: model is required")
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
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnthropicClient{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    maxTokens,
		maxRetries:   maxRetries,
		backoff:      backoff,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

var serviceRequestSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"services": {"type": "array", "items": {"type": "string"}, "description": "Requested work categories"},
		"make_model": {"type": "string", "description": "Vehicle make and model if mentioned"},
		"year": {"type": "integer", "description": "Vehicle year if mentioned"},
		"summary": {"type": "string", "description": "One-line summary of the request"}
	},
	"required": ["services"]
}`)

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []apiMessage     `json:"messages"`
	Tools     []toolDefinition `json:"tools,omitempty"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type toolInput struct {
	Services  []string `json:"services"`
	MakeModel string   `json:"make_model"`
	Year      int      `json:"year"`
	Summary   string   `json:"summary"`
}

// Chat sends the transcript and returns the model's reply. The transcript
// must end with the user's latest message.
func (c *AnthropicClient) Chat(ctx context.Context, history []conversation.Turn) (*Reply, error) {
	if len(history) == 0 {
		return nil, errors.New("llm: empty transcript")
	}

	messages := make([]apiMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, apiMessage{Role: turn.Role, Content: turn.Text})
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    c.systemPrompt,
		Messages:  messages,
		Tools: []toolDefinition{{
			Name:        serviceRequestTool,
			Description: "Report that the user asked for concrete repair or maintenance work.",
			InputSchema: serviceRequestSchema,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	data, err := c.invoke(ctx, body)
	if err != nil {
		return nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	return buildReply(parsed)
}

func buildReply(resp messagesResponse) (*Reply, error) {
	reply := &Reply{}
	var texts []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			if block.Name != serviceRequestTool {
				continue
			}
			var input toolInput
			if err := json.Unmarshal(block.Input, &input); err != nil {
				return nil, fmt.Errorf("llm: decode tool input: %w", err)
			}
			reply.Signal = &leads.Signal{
				Services:  input.Services,
				MakeModel: input.MakeModel,
				Year:      input.Year,
				Summary:   input.Summary,
			}
		}
	}
	reply.Text = strings.TrimSpace(strings.Join(texts, "\n"))
	if reply.Text == "" && reply.Signal == nil {
		return nil, errors.New("llm: response carried no content")
	}
	return reply, nil
}

func (c *AnthropicClient) invoke(ctx context.Context, body []byte) ([]byte, error) {
	url := c.baseURL + "/v1/messages"
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("llm: build request: %w", err)
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !retryable(0, err) || attempt == c.maxRetries {
				return nil, fmt.Errorf("llm: http error: %w", err)
			}
			lastErr = err
			c.logRetry(attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("llm: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		apiErr := decodeAPIError(resp.StatusCode, data)
		if attempt < c.maxRetries && retryable(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(attempt, resp.StatusCode, apiErr)
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
	return nil, errors.New("llm: request failed without response")
}

func (c *AnthropicClient) sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.backoff * time.Duration(1<<attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *AnthropicClient) logRetry(attempt, status int, err error) {
	c.logger.Warn("anthropic retry", "attempt", attempt+1, "status", status, "error", err)
}

// retryable allows retries on transport failures and server errors only.
// Client errors, including rate limits, surface immediately so the caller
// can apologize instead of stalling the chat.
func retryable(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	return status >= 500 && status <= 599
}

type apiError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("llm: %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("llm: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) error {
	var wrapper struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
		return &apiError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	wrapper.Error.StatusCode = status
	return &wrapper.Error
}

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dapi/neurozeh-auto-service-bot/internal/conversation"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewAnthropicClient(Config{
		BaseURL:      srv.URL,
		APIKey:       "test-key",
		Model:        "claude-test",
		SystemPrompt: "be helpful",
		MaxRetries:   retries,
		Backoff:      1,
	})
	require.NoError(t, err)
	return client
}

func userTurns(texts ...string) []conversation.Turn {
	var turns []conversation.Turn
	for _, text := range texts {
		turns = append(turns, conversation.Turn{Role: conversation.RoleUser, Text: text})
	}
	return turns
}

func TestChatReturnsText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, "be helpful", req.System)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, serviceRequestTool, req.Tools[0].Name)

		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "We are open until 8 pm."}},
		})
	}, 0)

	reply, err := client.Chat(context.Background(), userTurns("how late are you open?"))
	require.NoError(t, err)
	assert.Equal(t, "We are open until 8 pm.", reply.Text)
	assert.Nil(t, reply.Signal)
}

func TestChatParsesServiceRequestSignal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{
				{Type: "text", Text: "Sure, we can do that."},
				{
					Type:  "tool_use",
					Name:  serviceRequestTool,
					Input: json.RawMessage(`{"services":["Oil change"],"make_model":"Toyota Camry","year":2018,"summary":"oil change for a Camry"}`),
				},
			},
		})
	}, 0)

	reply, err := client.Chat(context.Background(), userTurns("oil change for my Camry please"))
	require.NoError(t, err)
	assert.Equal(t, "Sure, we can do that.", reply.Text)
	require.NotNil(t, reply.Signal)
	assert.Equal(t, []string{"Oil change"}, reply.Signal.Services)
	assert.Equal(t, "Toyota Camry", reply.Signal.MakeModel)
	assert.Equal(t, 2018, reply.Signal.Year)
}

func TestChatIgnoresUnknownTools(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{
				{Type: "text", Text: "hello"},
				{Type: "tool_use", Name: "something_else", Input: json.RawMessage(`{}`)},
			},
		})
	}, 0)

	reply, err := client.Chat(context.Background(), userTurns("hi"))
	require.NoError(t, err)
	assert.Nil(t, reply.Signal)
}

func TestChatRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: "recovered"}},
		})
	}, 1)

	reply, err := client.Chat(context.Background(), userTurns("hi"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}, 3)

	_, err := client.Chat(context.Background(), userTurns("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatEmptyTranscript(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, 0)

	_, err := client.Chat(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewAnthropicClientValidation(t *testing.T) {
	_, err := NewAnthropicClient(Config{Model: "m"})
	assert.Error(t, err)

	_, err = NewAnthropicClient(Config{APIKey: "k"})
	assert.Error(t, err)
}

package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBotClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:    srv.URL,
		Token:      "test-token",
		MaxRetries: retries,
		Backoff:    1,
	})
	require.NoError(t, err)
	return client
}

func writeResult(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(apiResponse{OK: true, Result: raw})
}

func TestGetMe(t *testing.T) {
	client := newTestBotClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getMe", r.URL.Path)
		writeResult(w, User{ID: 99, IsBot: true, Username: "service_bot"})
	}, 0)

	user, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(99), user.ID)
	assert.Equal(t, "service_bot", user.Username)
}

func TestSendMessage(t *testing.T) {
	client := newTestBotClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(42), payload["chat_id"])
		assert.Equal(t, "hello", payload["text"])
		assert.Equal(t, ParseModeMarkdown, payload["parse_mode"])

		writeResult(w, Message{MessageID: 7, Chat: Chat{ID: 42}})
	}, 0)

	msg, err := client.SendMessage(context.Background(), 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.MessageID)
}

func TestSendMessageEmptyText(t *testing.T) {
	client := newTestBotClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, 0)

	_, err := client.SendMessage(context.Background(), 42, "  ")
	assert.Error(t, err)
}

func TestGetUpdates(t *testing.T) {
	client := newTestBotClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(5), payload["offset"])

		writeResult(w, []Update{
			{UpdateID: 5, Message: &Message{Text: "hi", Chat: Chat{ID: 1}}},
			{UpdateID: 6, Message: &Message{Text: "again", Chat: Chat{ID: 1}}},
		})
	}, 0)

	updates, err := client.GetUpdates(context.Background(), 5, 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(6), updates[1].UpdateID)
}

func TestAPIErrorSurfaces(t *testing.T) {
	client := newTestBotClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(apiResponse{OK: false, ErrorCode: 400, Description: "chat not found"})
	}, 0)

	_, err := client.SendMessage(context.Background(), 42, "hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Contains(t, apiErr.Description, "chat not found")
}

func TestRetriesOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	client := newTestBotClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_ = json.NewEncoder(w).Encode(apiResponse{OK: false, ErrorCode: 429, Description: "retry later"})
			return
		}
		writeResult(w, Message{MessageID: 1})
	}, 1)

	_, err := client.SendMessage(context.Background(), 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

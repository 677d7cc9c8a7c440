// Package bot wires the conversation pipeline: rate limiting, history,
// language model replies, and lead escalation to the admin chat.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dapi/neurozeh-auto-service-bot/internal/conversation"
	"github.com/dapi/neurozeh-auto-service-bot/internal/leads"
	"github.com/dapi/neurozeh-auto-service-bot/internal/llm"
	"github.com/dapi/neurozeh-auto-service-bot/internal/markdown"
	"github.com/dapi/neurozeh-auto-service-bot/internal/observability/metrics"
	"github.com/dapi/neurozeh-auto-service-bot/internal/ratelimit"
	"github.com/dapi/neurozeh-auto-service-bot/internal/telegram"
)

const (
	defaultWelcome = "Hello! I am the service center assistant. " +
		"Tell me about your car and what brings you in."
	defaultRateLimited = "You are sending messages too fast. " +
		"Please wait a minute and try again."
	defaultApology = "Sorry, something went wrong on our side. " +
		"Please try again in a moment."
)

// Transport sends messages back to chats.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) (*telegram.Message, error)
}

// Options configures the handler. Zero-value messages fall back to
// defaults; Repo and Metrics may be nil.
type Options struct {
	Transport        Transport
	Limiter          ratelimit.Limiter
	Store            conversation.Store
	LLM              llm.Client
	Detector         *leads.Detector
	Repo             leads.Repository
	Metrics          *metrics.BotMetrics
	Logger           *slog.Logger
	AdminChatID      int64
	BotID            int64
	WelcomeMessage   string
	RateLimitMessage string
	ApologyMessage   string
}

// Handler processes inbound updates end to end.
type Handler struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// NewHandler validates the wiring and builds a handler.
func NewHandler(opts Options) *Handler {
	if opts.Transport == nil || opts.Limiter == nil || opts.Store == nil ||
		opts.LLM == nil || opts.Detector == nil {
		panic("bot: transport, limiter, store, llm and detector are required")
	}
	if opts.WelcomeMessage == "" {
		opts.WelcomeMessage = defaultWelcome
	}
	if opts.RateLimitMessage == "" {
		opts.RateLimitMessage = defaultRateLimited
	}
	if opts.ApologyMessage == "" {
		opts.ApologyMessage = defaultApology
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{opts: opts, log: log, now: time.Now}
}

// HandleUpdate implements telegram.UpdateHandler.
func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if h.joinedChat(msg) {
		log := h.log.With("chat_id", msg.Chat.ID)
		log.Info("added to chat, greeting")
		h.send(ctx, msg.Chat.ID, h.opts.WelcomeMessage, log)
		h.opts.Metrics.ObserveUpdate("chat_member", "ok")
		return
	}
	if msg.From.IsBot {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID
	log := h.log.With("user_id", userID, "chat_id", chatID)

	if text == "/start" {
		h.handleStart(ctx, chatID, userID, log)
		return
	}

	if !h.opts.Limiter.Allow(userID) {
		h.opts.Metrics.ObserveRateLimited()
		log.Info("rate limited")
		h.send(ctx, chatID, h.opts.RateLimitMessage, log)
		return
	}

	if err := h.opts.Store.Append(ctx, userID, conversation.Turn{
		Role:       conversation.RoleUser,
		Text:       text,
		OccurredAt: h.now().UTC(),
	}); err != nil {
		log.Error("append user turn", "error", err)
	}

	history, err := h.opts.Store.History(ctx, userID)
	if err != nil {
		log.Error("load history", "error", err)
		history = []conversation.Turn{{Role: conversation.RoleUser, Text: text}}
	}

	started := h.now()
	reply, err := h.opts.LLM.Chat(ctx, history)
	h.opts.Metrics.ObserveLLMLatency(h.now().Sub(started).Seconds())
	if err != nil {
		h.opts.Metrics.ObserveUpdate("message", "llm_error")
		log.Error("llm chat failed", "error", err)
		h.send(ctx, chatID, h.opts.ApologyMessage, log)
		return
	}

	if reply.Text != "" {
		h.send(ctx, chatID, reply.Text, log)
		if err := h.opts.Store.Append(ctx, userID, conversation.Turn{
			Role:       conversation.RoleAssistant,
			Text:       reply.Text,
			OccurredAt: h.now().UTC(),
		}); err != nil {
			log.Error("append assistant turn", "error", err)
		}
	}

	if reply.Signal != nil {
		h.escalate(ctx, msg, text, history, *reply.Signal, log)
	}
	h.opts.Metrics.ObserveUpdate("message", "ok")
}

// joinedChat reports whether this update announces the bot itself joining
// the chat.
func (h *Handler) joinedChat(msg *telegram.Message) bool {
	for _, m := range msg.NewChatMembers {
		if m.ID == h.opts.BotID && h.opts.BotID != 0 {
			return true
		}
	}
	return false
}

func (h *Handler) handleStart(ctx context.Context, chatID, userID int64, log *slog.Logger) {
	if err := h.opts.Store.Clear(ctx, userID); err != nil {
		log.Error("clear history", "error", err)
	}
	h.send(ctx, chatID, h.opts.WelcomeMessage, log)
	h.opts.Metrics.ObserveUpdate("command", "ok")
}

// escalate qualifies the detected request and notifies the admin chat.
func (h *Handler) escalate(ctx context.Context, msg *telegram.Message, text string, history []conversation.Turn, sig leads.Signal, log *slog.Logger) {
	lead := h.opts.Detector.Build(msg.From.ID, msg.From.Username, msg.From.FirstName, text, history, sig)

	if h.opts.Repo != nil {
		if err := h.opts.Repo.Create(ctx, lead); err != nil {
			h.opts.Metrics.ObserveLead("store_error")
			log.Error("store lead", "error", err, "lead_id", lead.ID)
		}
	}

	if h.opts.AdminChatID == 0 {
		h.opts.Metrics.ObserveLead("no_admin_chat")
		log.Warn("admin chat not configured, lead not delivered", "lead_id", lead.ID)
		return
	}
	h.send(ctx, h.opts.AdminChatID, leads.Render(lead), log)
	h.opts.Metrics.ObserveLead("notified")
	log.Info("lead escalated", "lead_id", lead.ID, "services", lead.Services)
}

// send sanitizes and delivers one message, logging failures instead of
// propagating them.
func (h *Handler) send(ctx context.Context, chatID int64, text string, log *slog.Logger) {
	if _, err := h.opts.Transport.SendMessage(ctx, chatID, markdown.Sanitize(text)); err != nil {
		log.Error("send message", "error", err, "chat_id", chatID)
	}
}

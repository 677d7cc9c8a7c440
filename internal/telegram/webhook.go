package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookPath is where the Bot API delivers updates.
const WebhookPath = "/telegram/webhook"

// NewRouter builds the HTTP surface for webhook mode: the update endpoint,
// a health probe and Prometheus metrics.
func NewRouter(handler UpdateHandler, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post(WebhookPath, func(w http.ResponseWriter, req *http.Request) {
		var update Update
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			logger.Warn("webhook decode failed", "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		// Ack immediately; the Bot API redelivers on slow responses.
		// Processing continues past the request's lifetime.
		go handler.HandleUpdate(context.WithoutCancel(req.Context()), update)
		w.WriteHeader(http.StatusOK)
	})

	return r
}

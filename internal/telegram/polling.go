package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// UpdateHandler processes one inbound update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// UpdateHandlerFunc adapts a function to UpdateHandler.
type UpdateHandlerFunc func(ctx context.Context, update Update)

// HandleUpdate implements UpdateHandler.
func (f UpdateHandlerFunc) HandleUpdate(ctx context.Context, update Update) {
	f(ctx, update)
}

// Poller pulls updates via long polling and dispatches each one on its own
// goroutine so a slow chat never blocks the rest.
type Poller struct {
	client      *Client
	handler     UpdateHandler
	logger      *slog.Logger
	pollTimeout int
	retryDelay  time.Duration
}

// NewPoller creates a poller over the client.
func NewPoller(client *Client, handler UpdateHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:      client,
		handler:     handler,
		logger:      logger,
		pollTimeout: 30,
		retryDelay:  3 * time.Second,
	}
}

// Run polls until the context is canceled. It always returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	// Polling and webhook delivery are mutually exclusive on the API side.
	if err := p.client.DeleteWebhook(ctx); err != nil {
		p.logger.Warn("delete webhook before polling", "error", err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			p.logger.Error("poll updates", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			wg.Add(1)
			go func(u Update) {
				defer wg.Done()
				p.handler.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

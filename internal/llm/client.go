// Package llm talks to the language model that drives the chat. Besides the
// reply text, the model can flag that the user asked for concrete work; the
// flag surfaces as a lead signal for the pipeline to qualify.
package llm

import (
	"context"

	"github.com/dapi/neurozeh-auto-service-bot/internal/conversation"
	"github.com/dapi/neurozeh-auto-service-bot/internal/leads"
)

// Reply is the model's answer to one user message. Signal is nil unless the
// model detected a service request.
type Reply struct {
	Text   string
	Signal *leads.Signal
}

// Client generates chat replies.
type Client interface {
	Chat(ctx context.Context, history []conversation.Turn) (*Reply, error)
}

package gateway

import (
	"context"

	"github.com/rahul/planwise/internal/agent"
	"github.com/rahul/planwise/internal/plan"
)

// Gateway is a user-facing surface (HTTP, Telegram, ...) over the planner.
type Gateway interface {
	// Start blocks serving requests until Stop is called or it fails
	Start() error
	// Stop gracefully shuts down the gateway
	Stop() error
}

// Messenger is a gateway that can push text to a chat.
type Messenger interface {
	Gateway
	Send(chatID string, text string) error
}

// Planner is the generation pipeline as seen by gateways.
type Planner interface {
	Run(ctx context.Context, source string, req plan.Request) (agent.Result, error)
	Busy() bool
}

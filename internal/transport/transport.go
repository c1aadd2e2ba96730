// Package transport sends gated messages to participant agent endpoints.
package transport

import (
	"context"

	"github.com/bidwire/gate/internal/model"
)

// Envelope is the wire form of a forwarded message. The sender's display
// name reflects any pseudonymization already applied; the original agent ID
// is kept for reply routing.
type Envelope struct {
	Message   model.Message `json:"message"`
	Broadcast bool          `json:"broadcast,omitempty"`
}

// Transport delivers an envelope to a recipient endpoint. Fire-and-forget
// from the gate's perspective beyond the immediate outcome: no retries, no
// delivery receipts.
type Transport interface {
	Send(ctx context.Context, endpoint string, env Envelope) error
}

package events

import (
	"context"

	"github.com/bidwire/gate/internal/model"
)

// Event topic constants
const (
	TopicMessageDelivered   = "gate.message.delivered"
	TopicMessageBlocked     = "gate.message.blocked"
	TopicMessageErrored     = "gate.message.errored"
	TopicBroadcastCompleted = "gate.broadcast.completed"

	// Intake subjects consumed by the gate (published by external agents).
	TopicMessageInbound   = "gate.message.inbound"
	TopicBroadcastInbound = "gate.broadcast.inbound"
)

// Event types

type MessageDelivered struct {
	Outcome model.DeliveryOutcome `json:"outcome"`
}

type MessageBlocked struct {
	Outcome model.DeliveryOutcome `json:"outcome"`
	Reason  string                `json:"reason"`
}

type MessageErrored struct {
	Outcome model.DeliveryOutcome `json:"outcome"`
}

type BroadcastCompleted struct {
	BroadcastID string                  `json:"broadcast_id"`
	ProjectID   string                  `json:"project_id"`
	Outcomes    []model.DeliveryOutcome `json:"outcomes"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

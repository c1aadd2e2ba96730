package model

import "time"

// GateState tracks a message's progress through the gate pipeline.
type GateState string

const (
	StateReceived            GateState = "RECEIVED"
	StateContextResolved     GateState = "CONTEXT_RESOLVED"
	StatePermissionEvaluated GateState = "PERMISSION_EVALUATED"
	StateTransformed         GateState = "TRANSFORMED"
	StateDelivered           GateState = "DELIVERED"
	StateBlocked             GateState = "BLOCKED"
	StateErrored             GateState = "ERRORED"
)

// Terminal reports whether the state ends the pipeline.
func (s GateState) Terminal() bool {
	switch s {
	case StateDelivered, StateBlocked, StateErrored:
		return true
	}
	return false
}

// DeliveryOutcome is the gate's result for one recipient. For broadcasts,
// one outcome is produced per recipient; a failed recipient never aborts
// the others.
type DeliveryOutcome struct {
	MessageID   string    `json:"message_id"`
	RecipientID string    `json:"recipient_id,omitempty"`
	State       GateState `json:"state"`

	// Detail is safe to show the caller. Blocked outcomes carry the verdict
	// reason; errored outcomes carry opaque text, with the full error logged
	// server-side only.
	Detail    string    `json:"detail,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Delivered reports whether the outcome reached the recipient.
func (o DeliveryOutcome) Delivered() bool {
	return o.State == StateDelivered
}

// Decision is the audit record of one permission evaluation. Decisions are
// written best-effort; a store hiccup never blocks the message itself.
type Decision struct {
	ID               string          `json:"id"`
	ProjectID        string          `json:"project_id,omitempty"`
	SenderAccountID  string          `json:"sender_account_id,omitempty"`
	RecipientAccount string          `json:"recipient_account_id,omitempty"`
	Outcome          GateState       `json:"outcome"`
	Reason           string          `json:"reason"`
	Transform        TransformPolicy `json:"transform,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

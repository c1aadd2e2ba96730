package model

import (
	"encoding/json"
	"time"
)

// Message is one unit of party-to-party communication passing through the
// gate. Messages are transient; they are not persisted by the gate itself.
type Message struct {
	ID            string          `json:"id"`
	CorrelationID string          `json:"correlation_id"` // task/conversation reference
	ProjectID     string          `json:"project_id,omitempty"`
	SenderID      string          `json:"sender_id"`    // agent ID
	RecipientID   string          `json:"recipient_id"` // agent ID
	SenderName    string          `json:"sender_name,omitempty"`
	Body          string          `json:"body"`
	Fields        json.RawMessage `json:"fields,omitempty"`      // structured payload
	Attachments   []string        `json:"attachments,omitempty"` // storage references only
	SentAt        time.Time       `json:"sent_at"`
}

// BroadcastTask asks the gate to fan a payload out to every contractor with
// a bid record on the project. It is consumed once and leaves no persisted
// broadcast entity behind.
type BroadcastTask struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	SenderID  string          `json:"sender_id"` // agent ID
	Body      string          `json:"body"`
	Fields    json.RawMessage `json:"fields,omitempty"`

	// IncludePriorContacts extends the recipient set to contractors with a
	// recorded pre-bid contact on the project.
	IncludePriorContacts bool `json:"include_prior_contacts,omitempty"`
}

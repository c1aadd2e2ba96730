package model

import (
	"encoding/json"
	"time"
)

// BidStatus represents the lifecycle state of a bid.
type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

// String returns the string representation of the status.
func (s BidStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s BidStatus) IsValid() bool {
	switch s {
	case BidPending, BidAccepted, BidRejected, BidWithdrawn:
		return true
	}
	return false
}

// Bid is a contractor's offer on a project. Bids are written by external
// submission flows; the gate only reads them.
type Bid struct {
	ID                  string          `json:"id"`
	ProjectID           string          `json:"project_id"`
	ContractorAccountID string          `json:"contractor_account_id"`
	AmountCents         int64           `json:"amount_cents"`
	Status              BidStatus       `json:"status"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// HasStatus reports whether any bid in the list has the given status.
// At most one bid per (project, contractor) pair is accepted at a time;
// that invariant is enforced by the bid submission flow, so callers may
// short-circuit on the first accepted match.
func HasStatus(bids []*Bid, status BidStatus) bool {
	for _, b := range bids {
		if b.Status == status {
			return true
		}
	}
	return false
}

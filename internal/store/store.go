package store

import (
	"context"

	"github.com/bidwire/gate/internal/model"
)

// DecisionFilter narrows ListDecisions results.
type DecisionFilter struct {
	ProjectID string
	Outcome   model.GateState
	Limit     int
	Offset    int
}

// Store defines the persistence interface for the gate's collaborator data:
// the bid ledger (read-only here), the participant directory, the pre-bid
// contact log, and the decision audit trail.
type Store interface {
	// Bids. Written by external submission flows; the gate only reads.
	// BidsFor returns an empty slice, not an error, when no bids exist yet.
	BidsFor(ctx context.Context, projectID, contractorAccountID string) ([]*model.Bid, error)
	// BiddersFor returns the distinct contractor account IDs with any bid
	// record on the project, in stable order.
	BiddersFor(ctx context.Context, projectID string) ([]string, error)

	// Participant directory
	GetParticipant(ctx context.Context, agentID string) (*model.Participant, error) // nil when unknown
	PutParticipant(ctx context.Context, p *model.Participant) error                 // upsert by agent ID
	ListParticipants(ctx context.Context) ([]*model.Participant, error)

	// Pre-bid contact log
	HasPriorContact(ctx context.Context, projectID, contractorAccountID string) (bool, error)
	RecordContact(ctx context.Context, projectID, contractorAccountID string) error
	ContactsFor(ctx context.Context, projectID string) ([]string, error)

	// Decision audit trail
	RecordDecision(ctx context.Context, d *model.Decision) error
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]*model.Decision, error)

	// Lifecycle
	Close() error
}

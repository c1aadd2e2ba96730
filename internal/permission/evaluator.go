// Package permission decides whether a homeowner↔contractor message may be
// delivered, and under which content transform.
//
// The policy exists to protect the marketplace's economics: until a bid is
// accepted, contact details are stripped so the parties cannot take the deal
// off-platform. Only an accepted bid lifts all transformation.
package permission

import (
	"github.com/bidwire/gate/internal/model"
)

// Input carries everything one evaluation needs. The evaluator itself does
// no I/O; callers resolve identities and fetch bids first.
type Input struct {
	ProjectID string

	SenderRole         model.Role
	SenderAccountID    string
	RecipientRole      model.Role
	RecipientAccountID string

	// Bids between the project and the contractor side of the conversation,
	// whichever party that is.
	Bids []*model.Bid

	// PriorContactExists reports whether the contractor has a recorded
	// pre-bid contact on this project. False is treated as "first message".
	PriorContactExists bool
}

// Evaluate applies the decision policy in strict order; the first matching
// rule wins. Every code path returns a Verdict — the evaluator never panics
// past its boundary, and upstream failures are the caller's to convert to a
// deny with ReasonCheckError.
func Evaluate(in Input) model.Verdict {
	// Rule 1: no project context, no project-scoped rules to apply.
	if in.ProjectID == "" {
		return model.Deny(model.ReasonNoProject)
	}

	// Rule 2: the gate only mediates homeowner↔contractor conversations.
	if in.SenderRole == in.RecipientRole {
		return model.Deny(model.ReasonSameRole)
	}

	// Rule 3: an accepted bid lifts all transformation. At most one bid per
	// pair is accepted at a time, so the first match settles it regardless
	// of any other pending or rejected bids present.
	if model.HasStatus(in.Bids, model.BidAccepted) {
		return model.Allow(model.TransformNone, model.ReasonBidAccepted)
	}

	// Rule 4: a pending bid allows contact, redacted.
	if model.HasStatus(in.Bids, model.BidPending) {
		return model.Allow(model.TransformRedact, model.ReasonBidPending)
	}

	// Rule 5: pre-bid outreach from the contractor side, still redacted
	// since no bid exists yet.
	if len(in.Bids) == 0 && in.SenderRole == model.RoleContractor {
		if in.PriorContactExists {
			return model.Allow(model.TransformRedact, model.ReasonFollowUp)
		}
		return model.Allow(model.TransformRedact, model.ReasonInitialContact)
	}

	// Rule 6: default deny.
	return model.Deny(model.ReasonNoRelationship)
}

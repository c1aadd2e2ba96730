package model

// TransformPolicy names the content transform applied before delivery.
type TransformPolicy string

const (
	TransformNone         TransformPolicy = "none"
	TransformRedact       TransformPolicy = "redact-contact-info"
	TransformPseudonymize TransformPolicy = "pseudonymize-sender"
)

// String returns the string representation of the policy.
func (p TransformPolicy) String() string {
	return string(p)
}

// Permission verdict reason strings. These are stable and suitable for
// display to the sender of a blocked message.
const (
	ReasonNoProject      = "no project context"
	ReasonSameRole       = "same-role messaging not supported"
	ReasonBidAccepted    = "bid accepted"
	ReasonBidPending     = "bid pending"
	ReasonInitialContact = "initial pre-bid contact"
	ReasonFollowUp       = "follow-up contact"
	ReasonNoRelationship = "no qualifying bid or contact relationship"
	ReasonCheckError     = "permission check error"
)

// Verdict is the Permission Evaluator's decision for a single message.
// Verdicts are computed fresh per message and never cached: bid status can
// change between two messages of the same conversation.
type Verdict struct {
	Allow     bool            `json:"allow"`
	Reason    string          `json:"reason"`
	Transform TransformPolicy `json:"transform,omitempty"` // set only when Allow
}

// Deny returns a deny verdict with the given reason.
func Deny(reason string) Verdict {
	return Verdict{Allow: false, Reason: reason}
}

// Allow returns an allow verdict with the given transform policy and reason.
func Allow(policy TransformPolicy, reason string) Verdict {
	return Verdict{Allow: true, Reason: reason, Transform: policy}
}

package permission

import (
	"testing"

	"github.com/bidwire/gate/internal/model"
)

func bid(status model.BidStatus) *model.Bid {
	return &model.Bid{ID: "bid-" + string(status), ProjectID: "proj-1", ContractorAccountID: "acct-c", Status: status}
}

func TestEvaluate_MissingProject(t *testing.T) {
	v := Evaluate(Input{
		SenderRole:    model.RoleHomeowner,
		RecipientRole: model.RoleContractor,
		Bids:          []*model.Bid{bid(model.BidAccepted)},
	})
	if v.Allow {
		t.Fatal("expected deny for missing project context")
	}
	if v.Reason != model.ReasonNoProject {
		t.Errorf("reason = %q, want %q", v.Reason, model.ReasonNoProject)
	}
}

func TestEvaluate_SameRole(t *testing.T) {
	// Same-role deny is invariant: it holds regardless of bid state.
	for _, role := range []model.Role{model.RoleHomeowner, model.RoleContractor} {
		for _, bids := range [][]*model.Bid{
			nil,
			{bid(model.BidAccepted)},
			{bid(model.BidPending)},
		} {
			v := Evaluate(Input{
				ProjectID:     "proj-1",
				SenderRole:    role,
				RecipientRole: role,
				Bids:          bids,
			})
			if v.Allow {
				t.Fatalf("role=%s bids=%d: expected deny", role, len(bids))
			}
			if v.Reason != model.ReasonSameRole {
				t.Errorf("role=%s: reason = %q, want %q", role, v.Reason, model.ReasonSameRole)
			}
		}
	}
}

func TestEvaluate_AcceptedBid(t *testing.T) {
	// Accepted wins even with pending and rejected bids alongside.
	v := Evaluate(Input{
		ProjectID:     "proj-1",
		SenderRole:    model.RoleContractor,
		RecipientRole: model.RoleHomeowner,
		Bids:          []*model.Bid{bid(model.BidRejected), bid(model.BidPending), bid(model.BidAccepted)},
	})
	if !v.Allow {
		t.Fatalf("expected allow, got deny (%s)", v.Reason)
	}
	if v.Transform != model.TransformNone {
		t.Errorf("transform = %q, want none", v.Transform)
	}
	if v.Reason != model.ReasonBidAccepted {
		t.Errorf("reason = %q, want %q", v.Reason, model.ReasonBidAccepted)
	}
}

func TestEvaluate_PendingBid(t *testing.T) {
	v := Evaluate(Input{
		ProjectID:     "proj-1",
		SenderRole:    model.RoleHomeowner,
		RecipientRole: model.RoleContractor,
		Bids:          []*model.Bid{bid(model.BidPending)},
	})
	if !v.Allow {
		t.Fatalf("expected allow, got deny (%s)", v.Reason)
	}
	if v.Transform != model.TransformRedact {
		t.Errorf("transform = %q, want redact-contact-info", v.Transform)
	}
	if v.Reason != model.ReasonBidPending {
		t.Errorf("reason = %q, want %q", v.Reason, model.ReasonBidPending)
	}
}

func TestEvaluate_PreBidContractorFirstContact(t *testing.T) {
	v := Evaluate(Input{
		ProjectID:          "proj-3",
		SenderRole:         model.RoleContractor,
		RecipientRole:      model.RoleHomeowner,
		Bids:               []*model.Bid{},
		PriorContactExists: false,
	})
	if !v.Allow {
		t.Fatalf("expected allow, got deny (%s)", v.Reason)
	}
	if v.Transform != model.TransformRedact {
		t.Errorf("transform = %q, want redact-contact-info", v.Transform)
	}
	if v.Reason != model.ReasonInitialContact {
		t.Errorf("reason = %q, want %q", v.Reason, model.ReasonInitialContact)
	}
}

func TestEvaluate_PreBidContractorFollowUp(t *testing.T) {
	v := Evaluate(Input{
		ProjectID:          "proj-3",
		SenderRole:         model.RoleContractor,
		RecipientRole:      model.RoleHomeowner,
		PriorContactExists: true,
	})
	if !v.Allow {
		t.Fatalf("expected allow, got deny (%s)", v.Reason)
	}
	if v.Reason != model.ReasonFollowUp {
		t.Errorf("reason = %q, want %q", v.Reason, model.ReasonFollowUp)
	}
	if v.Transform != model.TransformRedact {
		t.Errorf("transform = %q, want redact-contact-info (no bid exists)", v.Transform)
	}
}

func TestEvaluate_PreBidHomeownerDenied(t *testing.T) {
	// A homeowner cannot initiate with zero bids, regardless of contact state.
	for _, prior := range []bool{false, true} {
		v := Evaluate(Input{
			ProjectID:          "proj-1",
			SenderRole:         model.RoleHomeowner,
			RecipientRole:      model.RoleContractor,
			PriorContactExists: prior,
		})
		if v.Allow {
			t.Fatalf("prior=%v: expected deny", prior)
		}
		if v.Reason != model.ReasonNoRelationship {
			t.Errorf("prior=%v: reason = %q, want %q", prior, v.Reason, model.ReasonNoRelationship)
		}
	}
}

func TestEvaluate_OnlyDeadBidsDenied(t *testing.T) {
	// Rejected/withdrawn bids exist, so this is not pre-bid outreach, and
	// nothing qualifies: default deny.
	v := Evaluate(Input{
		ProjectID:     "proj-1",
		SenderRole:    model.RoleContractor,
		RecipientRole: model.RoleHomeowner,
		Bids:          []*model.Bid{bid(model.BidRejected), bid(model.BidWithdrawn)},
	})
	if v.Allow {
		t.Fatal("expected deny when only rejected/withdrawn bids exist")
	}
	if v.Reason != model.ReasonNoRelationship {
		t.Errorf("reason = %q, want %q", v.Reason, model.ReasonNoRelationship)
	}
}

func TestEvaluate_RuleOrder(t *testing.T) {
	// Missing project outranks same-role; same-role outranks accepted bid.
	v := Evaluate(Input{
		SenderRole:    model.RoleContractor,
		RecipientRole: model.RoleContractor,
		Bids:          []*model.Bid{bid(model.BidAccepted)},
	})
	if v.Reason != model.ReasonNoProject {
		t.Errorf("reason = %q, want %q first", v.Reason, model.ReasonNoProject)
	}

	v = Evaluate(Input{
		ProjectID:     "proj-1",
		SenderRole:    model.RoleContractor,
		RecipientRole: model.RoleContractor,
		Bids:          []*model.Bid{bid(model.BidAccepted)},
	})
	if v.Reason != model.ReasonSameRole {
		t.Errorf("reason = %q, want %q before bid rules", v.Reason, model.ReasonSameRole)
	}
}

// Package gate orchestrates the message pipeline: identity resolution,
// permission evaluation, content transformation, and delivery.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bidwire/gate/internal/delivery"
	"github.com/bidwire/gate/internal/events"
	"github.com/bidwire/gate/internal/idgen"
	"github.com/bidwire/gate/internal/identity"
	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/permission"
	"github.com/bidwire/gate/internal/store"
	"github.com/bidwire/gate/internal/transform"
)

// opaqueErrorDetail is the caller-visible text for internal failures.
// Full detail goes to the log, never to the sender.
const opaqueErrorDetail = "delivery failed, try again"

// Gate is the top-level message pipeline. It is stateless across
// invocations apart from the alias book owned by its transformer; every
// verdict is computed fresh because bid status can change between messages.
type Gate struct {
	store       store.Store
	resolver    identity.Resolver
	transformer *transform.Transformer
	router      *delivery.Router
	publisher   events.Publisher
	logger      *slog.Logger
}

// New constructs a Gate. All collaborators are required; pass
// events.NoopPublisher when no bus is configured.
func New(s store.Store, r identity.Resolver, tr *transform.Transformer, router *delivery.Router, pub events.Publisher, logger *slog.Logger) *Gate {
	return &Gate{
		store:       s,
		resolver:    r,
		transformer: tr,
		router:      router,
		publisher:   pub,
		logger:      logger,
	}
}

// resolved is the message context after identity resolution: both ends
// resolved, with the contractor side of the conversation identified.
type resolved struct {
	sender    model.Identity
	recipient model.Identity

	// contractorAccount is the durable account on the contractor side of
	// the conversation, empty when both parties share a role.
	contractorAccount string
}

// HandleMessage runs one message through the pipeline and returns its
// terminal outcome. Collaborator errors never escape; they become ERRORED
// (or BLOCKED, for permission-input reads, which fail closed).
func (g *Gate) HandleMessage(ctx context.Context, msg model.Message) model.DeliveryOutcome {
	if msg.ID == "" {
		if id, err := idgen.Generate(); err == nil {
			msg.ID = id
		}
	}

	// RECEIVED → CONTEXT_RESOLVED
	rc, err := g.resolveContext(ctx, msg)
	if err != nil {
		return g.errored(ctx, msg, rc, err)
	}

	// CONTEXT_RESOLVED → PERMISSION_EVALUATED
	verdict, bids := g.evaluate(ctx, msg, rc)
	if !verdict.Allow {
		return g.blocked(ctx, msg, rc, verdict)
	}

	// PERMISSION_EVALUATED → TRANSFORMED
	senderAccount := rc.sender.AccountID
	transformed, err := g.transformer.Apply(verdict.Transform, msg, senderAccount)
	if err != nil {
		return g.errored(ctx, msg, rc, err)
	}

	// First allowed pre-bid outreach from a contractor establishes the
	// contact relationship for follow-up checks. Best-effort: a write
	// failure must not lose the message.
	if rc.sender.Role == model.RoleContractor && len(bids) == 0 && msg.ProjectID != "" {
		if err := g.store.RecordContact(ctx, msg.ProjectID, rc.contractorAccount); err != nil {
			g.logger.Warn("failed to record first contact",
				"project_id", msg.ProjectID, "contractor", rc.contractorAccount, "err", err)
		}
	}

	// TRANSFORMED → DELIVERED | ERRORED
	outcome := g.router.Deliver(ctx, delivery.Prepared{
		Message:     transformed,
		RecipientID: msg.RecipientID,
	})

	g.recordDecision(ctx, msg, rc, outcome.State, verdict.Reason, verdict.Transform)
	g.publishOutcome(ctx, outcome, verdict.Reason)
	return outcome
}

// HandleBroadcast fans a task out to every contractor with a bid record on
// the project (optionally extended to recorded pre-bid contacts). Each
// recipient is evaluated and delivered independently; one failure never
// aborts the rest, and one outcome is returned per recipient.
func (g *Gate) HandleBroadcast(ctx context.Context, task model.BroadcastTask) []model.DeliveryOutcome {
	if task.ID == "" {
		if id, err := idgen.GenerateWithPrefix("bcast-"); err == nil {
			task.ID = id
		}
	}

	sender, err := g.resolver.Resolve(ctx, task.SenderID)
	if err != nil {
		g.logger.Error("broadcast sender unresolved", "broadcast_id", task.ID, "sender", task.SenderID, "err", err)
		return []model.DeliveryOutcome{{
			MessageID: task.ID,
			State:     model.StateErrored,
			Detail:    opaqueErrorDetail,
			ErrorKind: model.KindOf(err),
		}}
	}

	accounts, err := g.broadcastRecipients(ctx, task)
	if err != nil {
		g.logger.Error("broadcast recipient set unavailable", "broadcast_id", task.ID, "project_id", task.ProjectID, "err", err)
		return []model.DeliveryOutcome{{
			MessageID: task.ID,
			State:     model.StateErrored,
			Detail:    opaqueErrorDetail,
			ErrorKind: model.KindOf(err),
		}}
	}

	outcomes := make([]model.DeliveryOutcome, len(accounts))
	var (
		prepared    []delivery.Prepared
		preparedIdx []int
		verdicts    []model.Verdict
		contexts    []resolved
	)

	for i, account := range accounts {
		msg, verdict, rc, outcome := g.prepareBroadcastMessage(ctx, task, sender, account)
		if outcome != nil {
			outcomes[i] = *outcome
			continue
		}
		prepared = append(prepared, delivery.Prepared{
			Message:     msg,
			RecipientID: msg.RecipientID,
			Broadcast:   true,
		})
		preparedIdx = append(preparedIdx, i)
		verdicts = append(verdicts, verdict)
		contexts = append(contexts, rc)
	}

	for j, out := range g.router.Fanout(ctx, prepared) {
		outcomes[preparedIdx[j]] = out
		g.recordDecision(ctx, prepared[j].Message, contexts[j], out.State, verdicts[j].Reason, verdicts[j].Transform)
	}

	if err := g.publisher.Publish(ctx, events.TopicBroadcastCompleted, events.BroadcastCompleted{
		BroadcastID: task.ID,
		ProjectID:   task.ProjectID,
		Outcomes:    outcomes,
	}); err != nil {
		g.logger.Warn("failed to publish broadcast event", "broadcast_id", task.ID, "err", err)
	}

	return outcomes
}

// resolveContext resolves both ends of a message and identifies the
// contractor side. An identity that resolves without a durable account
// (the substring heuristic) is unusable for permission decisions unless
// both parties share a role, which rule 2 denies anyway.
func (g *Gate) resolveContext(ctx context.Context, msg model.Message) (resolved, error) {
	var rc resolved

	sender, err := g.resolver.Resolve(ctx, msg.SenderID)
	if err != nil {
		return rc, fmt.Errorf("resolve sender: %w", err)
	}
	recipient, err := g.resolver.Resolve(ctx, msg.RecipientID)
	if err != nil {
		return rc, fmt.Errorf("resolve recipient: %w", err)
	}

	rc.sender = sender
	rc.recipient = recipient

	switch {
	case sender.Role == recipient.Role:
		// Same-role traffic is denied by rule 2; no contractor side exists.
	case sender.Role == model.RoleContractor:
		rc.contractorAccount = sender.AccountID
	default:
		rc.contractorAccount = recipient.AccountID
	}

	if sender.Role != recipient.Role && rc.contractorAccount == "" {
		// Role known but account unmapped: fail closed rather than let a
		// heuristic-resolved identity through the bid rules.
		return rc, fmt.Errorf("contractor account unmapped: %w", model.ErrUnresolvedIdentity)
	}

	return rc, nil
}

// evaluate fetches bid and contact state and applies the permission policy.
// Read failures fail closed: the verdict is a deny with ReasonCheckError.
func (g *Gate) evaluate(ctx context.Context, msg model.Message, rc resolved) (model.Verdict, []*model.Bid) {
	var (
		bids         []*model.Bid
		priorContact bool
	)

	if msg.ProjectID != "" && rc.contractorAccount != "" {
		var err error
		bids, err = g.store.BidsFor(ctx, msg.ProjectID, rc.contractorAccount)
		if err != nil {
			g.logger.Error("bid lookup failed; denying",
				"message_id", msg.ID, "project_id", msg.ProjectID, "contractor", rc.contractorAccount, "err", err)
			return model.Deny(model.ReasonCheckError), nil
		}
		priorContact, err = g.store.HasPriorContact(ctx, msg.ProjectID, rc.contractorAccount)
		if err != nil {
			g.logger.Error("contact lookup failed; denying",
				"message_id", msg.ID, "project_id", msg.ProjectID, "contractor", rc.contractorAccount, "err", err)
			return model.Deny(model.ReasonCheckError), nil
		}
	}

	verdict := permission.Evaluate(permission.Input{
		ProjectID:          msg.ProjectID,
		SenderRole:         rc.sender.Role,
		SenderAccountID:    rc.sender.AccountID,
		RecipientRole:      rc.recipient.Role,
		RecipientAccountID: rc.recipient.AccountID,
		Bids:               bids,
		PriorContactExists: priorContact,
	})
	return verdict, bids
}

// broadcastRecipients computes the contractor account set for a broadcast:
// every account with a bid record, optionally plus recorded contacts.
// Accounts are deduplicated; order follows the store's stable ordering.
func (g *Gate) broadcastRecipients(ctx context.Context, task model.BroadcastTask) ([]string, error) {
	bidders, err := g.store.BiddersFor(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list bidders: %w", err)
	}

	if !task.IncludePriorContacts {
		return bidders, nil
	}

	contacts, err := g.store.ContactsFor(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	seen := make(map[string]bool, len(bidders))
	out := make([]string, 0, len(bidders)+len(contacts))
	for _, a := range bidders {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, a := range contacts {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out, nil
}

// prepareBroadcastMessage builds and clears one per-recipient message.
// When the recipient cannot receive it (unresolved agent, denied verdict,
// transform failure), the terminal outcome is returned instead and the
// other return values are zero.
func (g *Gate) prepareBroadcastMessage(ctx context.Context, task model.BroadcastTask, sender model.Identity, account string) (model.Message, model.Verdict, resolved, *model.DeliveryOutcome) {
	// The directory is the only account-to-agent mapping; never derive
	// agent IDs from account strings.
	agentID, err := g.resolver.AgentFor(ctx, model.RoleContractor, account)
	if err != nil {
		g.logger.Warn("broadcast recipient has no registered agent",
			"broadcast_id", task.ID, "account", account, "err", err)
		return model.Message{}, model.Verdict{}, resolved{}, &model.DeliveryOutcome{
			MessageID: task.ID,
			State:     model.StateErrored,
			Detail:    opaqueErrorDetail,
			ErrorKind: model.KindOf(err),
		}
	}

	msgID, _ := idgen.Generate()
	msg := model.Message{
		ID:            msgID,
		CorrelationID: task.ID,
		ProjectID:     task.ProjectID,
		SenderID:      task.SenderID,
		RecipientID:   agentID,
		Body:          task.Body,
		Fields:        task.Fields,
		SentAt:        time.Now().UTC(),
	}

	rc := resolved{
		sender:            sender,
		recipient:         model.Identity{Role: model.RoleContractor, AccountID: account},
		contractorAccount: account,
	}
	if sender.Role == model.RoleContractor {
		// Contractor-initiated broadcasts would be contractor→contractor;
		// the evaluator denies them per recipient.
		rc.contractorAccount = sender.AccountID
	}

	verdict, _ := g.evaluate(ctx, msg, rc)
	if !verdict.Allow {
		out := g.blocked(ctx, msg, rc, verdict)
		return model.Message{}, model.Verdict{}, resolved{}, &out
	}

	transformed, err := g.transformer.Apply(verdict.Transform, msg, sender.AccountID)
	if err != nil {
		out := g.errored(ctx, msg, rc, err)
		return model.Message{}, model.Verdict{}, resolved{}, &out
	}

	return transformed, verdict, rc, nil
}

// blocked finalizes a BLOCKED outcome: decision record, event, and a
// caller-visible reason string.
func (g *Gate) blocked(ctx context.Context, msg model.Message, rc resolved, verdict model.Verdict) model.DeliveryOutcome {
	outcome := model.DeliveryOutcome{
		MessageID:   msg.ID,
		RecipientID: msg.RecipientID,
		State:       model.StateBlocked,
		Detail:      "message blocked: " + verdict.Reason,
	}
	g.logger.Info("message blocked",
		"message_id", msg.ID, "project_id", msg.ProjectID, "reason", verdict.Reason)

	g.recordDecision(ctx, msg, rc, model.StateBlocked, verdict.Reason, "")
	g.publishOutcome(ctx, outcome, verdict.Reason)
	return outcome
}

// errored finalizes an ERRORED outcome with opaque caller-visible detail.
func (g *Gate) errored(ctx context.Context, msg model.Message, rc resolved, err error) model.DeliveryOutcome {
	kind := model.KindOf(err)
	outcome := model.DeliveryOutcome{
		MessageID:   msg.ID,
		RecipientID: msg.RecipientID,
		State:       model.StateErrored,
		Detail:      opaqueErrorDetail,
		ErrorKind:   kind,
	}
	g.logger.Error("message errored",
		"message_id", msg.ID, "project_id", msg.ProjectID, "kind", kind, "err", err)

	g.recordDecision(ctx, msg, rc, model.StateErrored, string(kind), "")
	g.publishOutcome(ctx, outcome, string(kind))
	return outcome
}

// recordDecision persists the audit record for one evaluation. Best-effort;
// failures are logged and swallowed so auditing never blocks a message.
func (g *Gate) recordDecision(ctx context.Context, msg model.Message, rc resolved, outcome model.GateState, reason string, policy model.TransformPolicy) {
	id, err := idgen.GenerateWithPrefix("dec-")
	if err != nil {
		g.logger.Warn("failed to generate decision id", "err", err)
		return
	}
	d := &model.Decision{
		ID:               id,
		ProjectID:        msg.ProjectID,
		SenderAccountID:  rc.sender.AccountID,
		RecipientAccount: rc.recipient.AccountID,
		Outcome:          outcome,
		Reason:           reason,
		Transform:        policy,
		CreatedAt:        time.Now().UTC(),
	}
	if err := g.store.RecordDecision(ctx, d); err != nil {
		g.logger.Warn("failed to record decision", "message_id", msg.ID, "err", err)
	}
}

// publishOutcome emits the bus event matching a terminal state. Best-effort.
func (g *Gate) publishOutcome(ctx context.Context, outcome model.DeliveryOutcome, reason string) {
	var (
		topic string
		event any
	)
	switch outcome.State {
	case model.StateDelivered:
		topic, event = events.TopicMessageDelivered, events.MessageDelivered{Outcome: outcome}
	case model.StateBlocked:
		topic, event = events.TopicMessageBlocked, events.MessageBlocked{Outcome: outcome, Reason: reason}
	case model.StateErrored:
		topic, event = events.TopicMessageErrored, events.MessageErrored{Outcome: outcome}
	default:
		return
	}
	if err := g.publisher.Publish(ctx, topic, event); err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Warn("failed to publish outcome event", "topic", topic, "message_id", outcome.MessageID, "err", err)
	}
}

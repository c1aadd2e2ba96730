// Package delivery resolves recipient endpoints and dispatches transformed
// messages, including bounded-parallel broadcast fan-out.
package delivery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bidwire/gate/internal/identity"
	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/transport"
)

// opaqueFailureDetail is what callers see for any delivery-side failure.
// Internal detail stays in the logs to avoid leaking state to senders.
const opaqueFailureDetail = "delivery failed, try again"

// Prepared is one transformed message ready for dispatch to one recipient.
type Prepared struct {
	Message     model.Message
	RecipientID string // agent ID
	Broadcast   bool
}

// Router sends prepared messages to their recipients. It never retries; a
// failed delivery is reported and left to the caller.
type Router struct {
	resolver    identity.Resolver
	transport   transport.Transport
	parallelism int
	logger      *slog.Logger
}

// NewRouter creates a Router. parallelism bounds concurrent sends during
// fan-out; values below 1 are treated as 1.
func NewRouter(resolver identity.Resolver, tr transport.Transport, parallelism int, logger *slog.Logger) *Router {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Router{
		resolver:    resolver,
		transport:   tr,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Deliver resolves the recipient's endpoint and sends the message. The
// returned outcome is terminal: DELIVERED, or ERRORED with the error kind.
func (r *Router) Deliver(ctx context.Context, p Prepared) model.DeliveryOutcome {
	endpoint, err := r.resolver.EndpointFor(ctx, p.RecipientID)
	if err != nil {
		r.logger.Error("recipient endpoint lookup failed",
			"message_id", p.Message.ID, "recipient", p.RecipientID, "err", err)
		return model.DeliveryOutcome{
			MessageID:   p.Message.ID,
			RecipientID: p.RecipientID,
			State:       model.StateErrored,
			Detail:      opaqueFailureDetail,
			ErrorKind:   model.KindOf(err),
		}
	}

	env := transport.Envelope{Message: p.Message, Broadcast: p.Broadcast}
	if err := r.transport.Send(ctx, endpoint, env); err != nil {
		// A dead or timed-out endpoint is reported as an unresolved
		// recipient; the gate does not distinguish the two (fail-closed).
		r.logger.Error("message send failed",
			"message_id", p.Message.ID, "recipient", p.RecipientID, "endpoint", endpoint, "err", err)
		return model.DeliveryOutcome{
			MessageID:   p.Message.ID,
			RecipientID: p.RecipientID,
			State:       model.StateErrored,
			Detail:      opaqueFailureDetail,
			ErrorKind:   model.KindRecipientUnresolved,
		}
	}

	return model.DeliveryOutcome{
		MessageID:   p.Message.ID,
		RecipientID: p.RecipientID,
		State:       model.StateDelivered,
	}
}

// Fanout delivers each prepared message independently with bounded
// parallelism. One recipient's failure never aborts the others; outcomes
// are returned in input order, one per prepared message.
func (r *Router) Fanout(ctx context.Context, items []Prepared) []model.DeliveryOutcome {
	outcomes := make([]model.DeliveryOutcome, len(items))

	sem := make(chan struct{}, r.parallelism)
	var wg sync.WaitGroup
	for i, p := range items {
		wg.Add(1)
		go func(i int, p Prepared) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = r.Deliver(ctx, p)
		}(i, p)
	}
	wg.Wait()

	return outcomes
}

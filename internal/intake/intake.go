// Package intake consumes inbound messages and broadcast tasks from the
// bus and feeds them through the gate.
package intake

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/bidwire/gate/internal/events"
	"github.com/bidwire/gate/internal/model"
)

// Handler processes decoded intake payloads. Satisfied by *gate.Gate.
type Handler interface {
	HandleMessage(ctx context.Context, msg model.Message) model.DeliveryOutcome
	HandleBroadcast(ctx context.Context, task model.BroadcastTask) []model.DeliveryOutcome
}

// Consumer pulls inbound payloads off the bus and dispatches them to the
// handler. Payloads sharing a correlation key are processed in arrival
// order; unrelated payloads run concurrently across worker shards.
type Consumer struct {
	sub     events.Subscriber
	handler Handler
	workers int
	logger  *slog.Logger
}

// NewConsumer creates a Consumer with the given worker shard count.
// Values below 1 are treated as 1.
func NewConsumer(sub events.Subscriber, handler Handler, workers int, logger *slog.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{sub: sub, handler: handler, workers: workers, logger: logger}
}

type job struct {
	topic   string
	payload []byte
}

// Run subscribes to the inbound subjects and processes payloads until ctx
// is cancelled. It blocks; run it in its own goroutine.
func (c *Consumer) Run(ctx context.Context) error {
	msgCh, cancelMsg, err := c.sub.Subscribe(events.TopicMessageInbound)
	if err != nil {
		return err
	}
	defer cancelMsg()

	bcastCh, cancelBcast, err := c.sub.Subscribe(events.TopicBroadcastInbound)
	if err != nil {
		return err
	}
	defer cancelBcast()

	// One channel per shard. A payload's correlation key picks its shard,
	// and each shard drains sequentially, which keeps ordering within a
	// conversation without serializing the whole intake.
	shards := make([]chan job, c.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan job, 16)
		wg.Add(1)
		go func(ch <-chan job) {
			defer wg.Done()
			for j := range ch {
				c.dispatch(ctx, j)
			}
		}(shards[i])
	}

	drain := func(topic string, payload []byte) {
		h := fnv.New32a()
		h.Write([]byte(correlationKey(topic, payload)))
		shards[h.Sum32()%uint32(c.workers)] <- job{topic: topic, payload: payload}
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case payload, ok := <-msgCh:
			if !ok {
				break loop
			}
			drain(events.TopicMessageInbound, payload)
		case payload, ok := <-bcastCh:
			if !ok {
				break loop
			}
			drain(events.TopicBroadcastInbound, payload)
		}
	}

	for _, ch := range shards {
		close(ch)
	}
	wg.Wait()
	return ctx.Err()
}

func (c *Consumer) dispatch(ctx context.Context, j job) {
	switch j.topic {
	case events.TopicMessageInbound:
		var msg model.Message
		if err := json.Unmarshal(j.payload, &msg); err != nil {
			c.logger.Warn("discarding malformed inbound message", "err", err)
			return
		}
		out := c.handler.HandleMessage(ctx, msg)
		c.logger.Debug("inbound message processed", "message_id", out.MessageID, "state", out.State)
	case events.TopicBroadcastInbound:
		var task model.BroadcastTask
		if err := json.Unmarshal(j.payload, &task); err != nil {
			c.logger.Warn("discarding malformed broadcast task", "err", err)
			return
		}
		outcomes := c.handler.HandleBroadcast(ctx, task)
		c.logger.Debug("broadcast processed", "broadcast_id", task.ID, "recipients", len(outcomes))
	}
}

// correlationKey extracts the ordering key without a full decode. Messages
// order by correlation ID (falling back to sender); broadcasts are
// independent tasks and order by their own ID.
func correlationKey(topic string, payload []byte) string {
	var probe struct {
		ID            string `json:"id"`
		CorrelationID string `json:"correlation_id"`
		SenderID      string `json:"sender_id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	if topic == events.TopicBroadcastInbound {
		return probe.ID
	}
	if probe.CorrelationID != "" {
		return probe.CorrelationID
	}
	return probe.SenderID
}

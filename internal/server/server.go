// Package server exposes the gate over HTTP: message and broadcast
// submission, participant directory administration, and the decision
// audit trail.
package server

import (
	"context"
	"log/slog"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

// Gate is the message pipeline the server fronts. Satisfied by *gate.Gate.
type Gate interface {
	HandleMessage(ctx context.Context, msg model.Message) model.DeliveryOutcome
	HandleBroadcast(ctx context.Context, task model.BroadcastTask) []model.DeliveryOutcome
}

// GateServer holds the handlers' shared dependencies.
type GateServer struct {
	gate   Gate
	store  store.Store
	logger *slog.Logger
}

// NewGateServer returns a GateServer backed by the given gate and store.
func NewGateServer(g Gate, s store.Store, logger *slog.Logger) *GateServer {
	return &GateServer{gate: g, store: s, logger: logger}
}

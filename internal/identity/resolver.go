// Package identity maps ephemeral agent IDs to durable roles, accounts,
// and delivery endpoints.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

// Resolver looks up who a participant is and where to reach them.
// Resolution is read-only; resolvers never mutate the directory.
type Resolver interface {
	// Resolve returns the role and durable account ID for an agent ID.
	// Returns ErrUnresolvedIdentity when the ID matches no known mapping.
	Resolve(ctx context.Context, agentID string) (model.Identity, error)

	// EndpointFor returns the agent's current delivery endpoint.
	// Returns ErrRecipientUnresolved when no endpoint is known.
	EndpointFor(ctx context.Context, agentID string) (string, error)

	// AgentFor reverse-maps a (role, account) pair to its agent ID.
	// Used by broadcast fan-out, which starts from bid records keyed by
	// account. Returns ErrUnresolvedIdentity when no agent is registered.
	AgentFor(ctx context.Context, role model.Role, accountID string) (string, error)
}

// DirectoryResolver resolves against the participant directory in the store.
type DirectoryResolver struct {
	store store.Store
}

// NewDirectoryResolver returns a resolver backed by the given store.
func NewDirectoryResolver(s store.Store) *DirectoryResolver {
	return &DirectoryResolver{store: s}
}

func (r *DirectoryResolver) Resolve(ctx context.Context, agentID string) (model.Identity, error) {
	p, err := r.store.GetParticipant(ctx, agentID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("resolve %s: %w", agentID, err)
	}
	if p == nil {
		return model.Identity{}, fmt.Errorf("resolve %s: %w", agentID, model.ErrUnresolvedIdentity)
	}
	return model.Identity{Role: p.Role, AccountID: p.AccountID}, nil
}

func (r *DirectoryResolver) EndpointFor(ctx context.Context, agentID string) (string, error) {
	p, err := r.store.GetParticipant(ctx, agentID)
	if err != nil {
		return "", fmt.Errorf("endpoint for %s: %w", agentID, err)
	}
	if p == nil || p.Endpoint == "" {
		return "", fmt.Errorf("endpoint for %s: %w", agentID, model.ErrRecipientUnresolved)
	}
	return p.Endpoint, nil
}

func (r *DirectoryResolver) AgentFor(ctx context.Context, role model.Role, accountID string) (string, error) {
	participants, err := r.store.ListParticipants(ctx)
	if err != nil {
		return "", fmt.Errorf("agent for %s/%s: %w", role, accountID, err)
	}
	for _, p := range participants {
		if p.Role == role && p.AccountID == accountID {
			return p.AgentID, nil
		}
	}
	return "", fmt.Errorf("agent for %s/%s: %w", role, accountID, model.ErrUnresolvedIdentity)
}

// HeuristicResolver guesses a role from a substring of the agent ID when the
// wrapped resolver cannot. This is a known-weak transitional mapping kept
// only for directories that have not been backfilled: it can identify a
// role but never an account, so Resolve still fails and only same-role
// pre-checks can use the guess. It must not feed allow decisions.
type HeuristicResolver struct {
	next   Resolver
	logger *slog.Logger
}

// NewHeuristicResolver wraps next with substring-based role guessing.
func NewHeuristicResolver(next Resolver, logger *slog.Logger) *HeuristicResolver {
	return &HeuristicResolver{next: next, logger: logger}
}

func (r *HeuristicResolver) Resolve(ctx context.Context, agentID string) (model.Identity, error) {
	id, err := r.next.Resolve(ctx, agentID)
	if err == nil {
		return id, nil
	}
	if role, ok := guessRole(agentID); ok {
		// Role-only identity: no account ID, so bid lookups still fail and
		// the evaluator denies. The guess exists to improve reason strings
		// and same-role rejection, nothing more.
		r.logger.Warn("identity resolved by substring heuristic; directory entry missing",
			"agent_id", agentID, "role", role)
		return model.Identity{Role: role}, nil
	}
	return model.Identity{}, err
}

func (r *HeuristicResolver) EndpointFor(ctx context.Context, agentID string) (string, error) {
	return r.next.EndpointFor(ctx, agentID)
}

func (r *HeuristicResolver) AgentFor(ctx context.Context, role model.Role, accountID string) (string, error) {
	return r.next.AgentFor(ctx, role, accountID)
}

func guessRole(agentID string) (model.Role, bool) {
	switch {
	case strings.Contains(agentID, "contractor"):
		return model.RoleContractor, true
	case strings.Contains(agentID, "homeowner"):
		return model.RoleHomeowner, true
	}
	return "", false
}

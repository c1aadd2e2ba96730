package server

import (
	"net/http"
	"strconv"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

// handleListDecisions handles GET /v1/decisions. Supports project_id,
// outcome, limit, and offset query parameters.
func (s *GateServer) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.DecisionFilter{
		ProjectID: q.Get("project_id"),
	}
	if v := q.Get("outcome"); v != "" {
		outcome := model.GateState(v)
		if !outcome.Terminal() {
			writeError(w, http.StatusBadRequest, "outcome must be a terminal state")
			return
		}
		filter.Outcome = outcome
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	decisions, err := s.store.ListDecisions(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list decisions", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list decisions")
		return
	}
	if decisions == nil {
		decisions = []*model.Decision{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}

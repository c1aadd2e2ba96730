package server

import (
	"encoding/json"
	"net/http"

	"github.com/bidwire/gate/internal/model"
)

// handlePutParticipant handles POST /v1/participants (upsert by agent ID).
func (s *GateServer) handlePutParticipant(w http.ResponseWriter, r *http.Request) {
	var p model.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if p.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return
	}
	if p.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if !p.Role.IsValid() {
		writeError(w, http.StatusBadRequest, "role must be homeowner or contractor")
		return
	}

	if err := s.store.PutParticipant(r.Context(), &p); err != nil {
		s.logger.Error("failed to upsert participant", "agent_id", p.AgentID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store participant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participant": p})
}

// handleGetParticipant handles GET /v1/participants/{id}.
func (s *GateServer) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	p, err := s.store.GetParticipant(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to get participant", "agent_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to get participant")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "participant not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participant": p})
}

// handleListParticipants handles GET /v1/participants.
func (s *GateServer) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.store.ListParticipants(r.Context())
	if err != nil {
		s.logger.Error("failed to list participants", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list participants")
		return
	}
	if participants == nil {
		participants = []*model.Participant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": participants})
}

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bidwire/gate/internal/model"
)

// handleSubmitMessage handles POST /v1/messages. The message runs the full
// pipeline synchronously and the terminal outcome is returned. A blocked or
// errored message is still a 200: the request itself succeeded.
func (s *GateServer) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var msg model.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg.SenderID == "" {
		writeError(w, http.StatusBadRequest, "sender_id is required")
		return
	}
	if msg.RecipientID == "" {
		writeError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}
	if msg.Body == "" && len(msg.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "body or fields is required")
		return
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	outcome := s.gate.HandleMessage(r.Context(), msg)
	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcome})
}

// handleSubmitBroadcast handles POST /v1/broadcasts. One outcome is returned
// per computed recipient.
func (s *GateServer) handleSubmitBroadcast(w http.ResponseWriter, r *http.Request) {
	var task model.BroadcastTask
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if task.SenderID == "" {
		writeError(w, http.StatusBadRequest, "sender_id is required")
		return
	}
	if task.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	if task.Body == "" && len(task.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "body or fields is required")
		return
	}

	outcomes := s.gate.HandleBroadcast(r.Context(), task)
	writeJSON(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

// stubGate returns canned outcomes and records what it was handed.
type stubGate struct {
	lastMessage   *model.Message
	lastBroadcast *model.BroadcastTask
	outcome       model.DeliveryOutcome
	outcomes      []model.DeliveryOutcome
}

func (g *stubGate) HandleMessage(_ context.Context, msg model.Message) model.DeliveryOutcome {
	g.lastMessage = &msg
	return g.outcome
}

func (g *stubGate) HandleBroadcast(_ context.Context, task model.BroadcastTask) []model.DeliveryOutcome {
	g.lastBroadcast = &task
	return g.outcomes
}

// mockStore implements the store methods the HTTP handlers touch.
type mockStore struct {
	store.Store
	participants map[string]*model.Participant
	decisions    []*model.Decision
}

func newMockStore() *mockStore {
	return &mockStore{participants: make(map[string]*model.Participant)}
}

func (m *mockStore) GetParticipant(_ context.Context, agentID string) (*model.Participant, error) {
	return m.participants[agentID], nil
}

func (m *mockStore) PutParticipant(_ context.Context, p *model.Participant) error {
	m.participants[p.AgentID] = p
	return nil
}

func (m *mockStore) ListParticipants(_ context.Context) ([]*model.Participant, error) {
	var out []*model.Participant
	for _, p := range m.participants {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) ListDecisions(_ context.Context, filter store.DecisionFilter) ([]*model.Decision, error) {
	var out []*model.Decision
	for _, d := range m.decisions {
		if filter.ProjectID != "" && d.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Outcome != "" && d.Outcome != filter.Outcome {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func newTestHandler(t *testing.T, g Gate, ms store.Store, authToken string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	return NewGateServer(g, ms, logger).NewHTTPHandler(authToken)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSubmitMessage(t *testing.T) {
	g := &stubGate{outcome: model.DeliveryOutcome{MessageID: "msg-1", State: model.StateDelivered}}
	handler := newTestHandler(t, g, newMockStore(), "")

	rec := doJSON(t, handler, http.MethodPost, "/v1/messages", model.Message{
		ID: "msg-1", SenderID: "agent-ho-1", RecipientID: "agent-co-1", Body: "hi",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Outcome model.DeliveryOutcome `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Outcome.State != model.StateDelivered {
		t.Errorf("outcome state = %s, want DELIVERED", resp.Outcome.State)
	}
	if g.lastMessage == nil || g.lastMessage.ID != "msg-1" {
		t.Errorf("gate saw %+v", g.lastMessage)
	}
	if g.lastMessage.SentAt.IsZero() {
		t.Error("SentAt was not defaulted")
	}
}

func TestSubmitMessage_Validation(t *testing.T) {
	tests := []struct {
		name string
		msg  model.Message
	}{
		{"missing sender", model.Message{RecipientID: "agent-co-1", Body: "hi"}},
		{"missing recipient", model.Message{SenderID: "agent-ho-1", Body: "hi"}},
		{"empty payload", model.Message{SenderID: "agent-ho-1", RecipientID: "agent-co-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &stubGate{}
			handler := newTestHandler(t, g, newMockStore(), "")
			rec := doJSON(t, handler, http.MethodPost, "/v1/messages", tt.msg)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if g.lastMessage != nil {
				t.Error("invalid message reached the gate")
			}
		})
	}
}

func TestSubmitBroadcast(t *testing.T) {
	g := &stubGate{outcomes: []model.DeliveryOutcome{
		{MessageID: "msg-1", State: model.StateDelivered},
		{MessageID: "msg-2", State: model.StateBlocked},
	}}
	handler := newTestHandler(t, g, newMockStore(), "")

	rec := doJSON(t, handler, http.MethodPost, "/v1/broadcasts", model.BroadcastTask{
		ID: "bcast-1", ProjectID: "proj-1", SenderID: "agent-ho-1", Body: "update",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Outcomes []model.DeliveryOutcome `json:"outcomes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(resp.Outcomes))
	}
	if g.lastBroadcast == nil || g.lastBroadcast.ProjectID != "proj-1" {
		t.Errorf("gate saw %+v", g.lastBroadcast)
	}
}

func TestSubmitBroadcast_MissingProject(t *testing.T) {
	g := &stubGate{}
	handler := newTestHandler(t, g, newMockStore(), "")
	rec := doJSON(t, handler, http.MethodPost, "/v1/broadcasts", model.BroadcastTask{
		SenderID: "agent-ho-1", Body: "update",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParticipantLifecycle(t *testing.T) {
	ms := newMockStore()
	handler := newTestHandler(t, &stubGate{}, ms, "")

	rec := doJSON(t, handler, http.MethodPost, "/v1/participants", model.Participant{
		AgentID: "agent-co-1", AccountID: "co-1", Role: model.RoleContractor,
		Endpoint: "http://co-1.local",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/participants/agent-co-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var resp struct {
		Participant model.Participant `json:"participant"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Participant.AccountID != "co-1" {
		t.Errorf("AccountID = %q, want co-1", resp.Participant.AccountID)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/participants/agent-nobody", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing participant status = %d, want 404", rec.Code)
	}
}

func TestPutParticipant_InvalidRole(t *testing.T) {
	handler := newTestHandler(t, &stubGate{}, newMockStore(), "")
	rec := doJSON(t, handler, http.MethodPost, "/v1/participants", model.Participant{
		AgentID: "agent-x", AccountID: "x-1", Role: "realtor",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListDecisions_Filtered(t *testing.T) {
	ms := newMockStore()
	ms.decisions = []*model.Decision{
		{ID: "dec-1", ProjectID: "proj-1", Outcome: model.StateBlocked},
		{ID: "dec-2", ProjectID: "proj-2", Outcome: model.StateDelivered},
	}
	handler := newTestHandler(t, &stubGate{}, ms, "")

	rec := doJSON(t, handler, http.MethodGet, "/v1/decisions?project_id=proj-1&outcome=BLOCKED", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Decisions []*model.Decision `json:"decisions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Decisions) != 1 || resp.Decisions[0].ID != "dec-1" {
		t.Errorf("got %+v, want only dec-1", resp.Decisions)
	}
}

func TestListDecisions_InvalidOutcome(t *testing.T) {
	handler := newTestHandler(t, &stubGate{}, newMockStore(), "")
	rec := doJSON(t, handler, http.MethodGet, "/v1/decisions?outcome=PENDING", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := newTestHandler(t, &stubGate{}, newMockStore(), "secret")

	// Health is exempt.
	rec := doJSON(t, handler, http.MethodGet, "/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}

	// Missing token.
	rec = doJSON(t, handler, http.MethodGet, "/v1/decisions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/v1/decisions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", rec.Code)
	}

	// Valid token.
	req = httptest.NewRequest(http.MethodGet, "/v1/decisions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authorized status = %d, want 200", rec.Code)
	}
}

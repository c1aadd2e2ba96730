package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

// mockStore implements only the store methods audit uses; the embedded nil
// interface panics if anything else is called.
type mockStore struct {
	store.Store
	decisions []*model.Decision
	listErr   error
}

func (m *mockStore) ListDecisions(_ context.Context, _ store.DecisionFilter) ([]*model.Decision, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.decisions, nil
}

func TestExportJSONL_Empty(t *testing.T) {
	ms := &mockStore{}
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.DecisionCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_SortedDecisions(t *testing.T) {
	now := time.Now().UTC()
	ms := &mockStore{decisions: []*model.Decision{
		{ID: "dec-zzz", ProjectID: "proj-1", Outcome: model.StateBlocked, Reason: model.ReasonSameRole, CreatedAt: now},
		{ID: "dec-aaa", ProjectID: "proj-1", Outcome: model.StateDelivered, Reason: model.ReasonBidAccepted, CreatedAt: now},
	}}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 decisions
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.DecisionCount != 2 {
		t.Fatalf("header DecisionCount = %d, want 2", h.DecisionCount)
	}

	var rec1, rec2 record
	if err := json.Unmarshal([]byte(lines[1]), &rec1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &rec2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if rec1.Type != "decision" || rec2.Type != "decision" {
		t.Fatalf("expected decision types, got %q and %q", rec1.Type, rec2.Type)
	}

	data1, _ := json.Marshal(rec1.Data)
	data2, _ := json.Marshal(rec2.Data)
	var d1, d2 model.Decision
	if err := json.Unmarshal(data1, &d1); err != nil {
		t.Fatalf("unmarshal d1: %v", err)
	}
	if err := json.Unmarshal(data2, &d2); err != nil {
		t.Fatalf("unmarshal d2: %v", err)
	}
	if d1.ID != "dec-aaa" || d2.ID != "dec-zzz" {
		t.Fatalf("decisions not sorted: got %q, %q", d1.ID, d2.ID)
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}

// Package audit exports the gate's decision trail as JSONL for offline
// review and periodic archival.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bidwire/gate/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	DecisionCount int       `json:"decision_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ExportJSONL writes every recorded decision from the store as JSONL to w,
// sorted by decision ID for stable diffs between exports.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	decisions, err := s.ListDecisions(ctx, store.DecisionFilter{})
	if err != nil {
		return fmt.Errorf("list decisions: %w", err)
	}

	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].ID < decisions[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		DecisionCount: len(decisions),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, d := range decisions {
		if err := enc.Encode(record{Type: "decision", Data: d}); err != nil {
			return fmt.Errorf("encode decision %s: %w", d.ID, err)
		}
	}

	return nil
}

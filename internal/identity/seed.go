package identity

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

// SeedFile is the on-disk participant directory seed, a TOML file of named
// entries. Used in development and by the directory CLI to preload the
// participants table; the table remains the source of truth at runtime.
type SeedFile struct {
	Participants map[string]SeedEntry `toml:"participants"`
}

// SeedEntry is one participant in the seed file, keyed by agent ID.
type SeedEntry struct {
	AccountID string `toml:"account_id"`
	Role      string `toml:"role"`
	Name      string `toml:"name,omitempty"`
	Endpoint  string `toml:"endpoint,omitempty"`
}

// LoadSeedFile parses a directory seed file and validates its entries.
func LoadSeedFile(path string) ([]*model.Participant, error) {
	var f SeedFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode directory seed %s: %w", path, err)
	}

	participants := make([]*model.Participant, 0, len(f.Participants))
	for agentID, e := range f.Participants {
		role := model.Role(e.Role)
		if !role.IsValid() {
			return nil, fmt.Errorf("directory seed %s: entry %q has unknown role %q", path, agentID, e.Role)
		}
		if e.AccountID == "" {
			return nil, fmt.Errorf("directory seed %s: entry %q missing account_id", path, agentID)
		}
		participants = append(participants, &model.Participant{
			AgentID:   agentID,
			AccountID: e.AccountID,
			Role:      role,
			Name:      e.Name,
			Endpoint:  e.Endpoint,
		})
	}
	return participants, nil
}

// SeedStore upserts every entry from the seed file into the directory.
func SeedStore(ctx context.Context, s store.Store, path string) (int, error) {
	participants, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	for _, p := range participants {
		if err := s.PutParticipant(ctx, p); err != nil {
			return 0, fmt.Errorf("seed participant %s: %w", p.AgentID, err)
		}
	}
	return len(participants), nil
}

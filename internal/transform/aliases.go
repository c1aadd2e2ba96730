package transform

import (
	"fmt"
	"sync"
)

// AliasBook assigns stable per-project pseudonyms ("Contractor A",
// "Contractor B", ...) to contractor accounts. Aliases are assigned lazily
// on first request, are stable for the book's lifetime, and are scoped per
// project: the same account on two projects gets independently assigned
// labels, so aliases carry no cross-project correlation.
//
// The book is owned by the gate and created with it; it is not a
// process-wide singleton. Multiple conversations on one project may
// pseudonymize concurrently, so lookups take a single mutex.
type AliasBook struct {
	mu       sync.Mutex
	projects map[string]*projectAliases
}

type projectAliases struct {
	byAccount map[string]string
	next      int
}

// NewAliasBook returns an empty alias book.
func NewAliasBook() *AliasBook {
	return &AliasBook{projects: make(map[string]*projectAliases)}
}

// Alias returns the pseudonym for an account within a project, assigning
// one on first sight.
func (b *AliasBook) Alias(projectID, accountID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.projects[projectID]
	if p == nil {
		p = &projectAliases{byAccount: make(map[string]string)}
		b.projects[projectID] = p
	}

	if alias, ok := p.byAccount[accountID]; ok {
		return alias
	}

	alias := fmt.Sprintf("Contractor %s", letterLabel(p.next))
	p.next++
	p.byAccount[accountID] = alias
	return alias
}

// DropProject forgets all aliases for a project. Called when the project's
// conversation lifetime ends; alias state is never persisted beyond it.
func (b *AliasBook) DropProject(projectID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.projects, projectID)
}

// letterLabel converts 0, 1, ... to A, B, ..., Z, AA, AB, ...
func letterLabel(n int) string {
	label := ""
	for {
		label = string(rune('A'+n%26)) + label
		n = n/26 - 1
		if n < 0 {
			return label
		}
	}
}

package model

// Role classifies a marketplace participant.
type Role string

const (
	RoleHomeowner  Role = "homeowner"
	RoleContractor Role = "contractor"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks whether the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleHomeowner, RoleContractor:
		return true
	}
	return false
}

// Participant binds an ephemeral agent ID to a durable account.
//
// AgentID is the session-scoped handle used for routing; AccountID is the
// durable identity that bid and contact records are keyed by. The two are
// separate namespaces and must never be derived from one another by string
// convention.
type Participant struct {
	AgentID   string `json:"agent_id"`
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
	Name      string `json:"name,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
}

// Identity is the resolved (role, account) pair for one agent ID.
type Identity struct {
	Role      Role   `json:"role"`
	AccountID string `json:"account_id"`
}

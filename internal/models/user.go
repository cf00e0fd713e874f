package models

type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
	RoleOracle Role = "oracle"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleAdmin, RoleOracle:
		return true
	}
	return false
}

// Actor is the authenticated caller of an engine operation. Privileged
// operations check its role instead of consulting global state.
type Actor struct {
	Account string `json:"account"`
	Role    Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

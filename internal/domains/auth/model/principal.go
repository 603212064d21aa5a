package model

import "time"

// Role is stored with a "ROLE_" prefix and exposed without it,
// normalized at the edge (handler layer), per the mixed-representation
// convention this system inherited from its source.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Storage() string {
	return "ROLE_" + string(r)
}

// RoleFromStorage strips the "ROLE_" prefix used at rest.
func RoleFromStorage(stored string) Role {
	if len(stored) > 5 && stored[:5] == "ROLE_" {
		return Role(stored[5:])
	}
	return Role(stored)
}

// Principal is an authenticated identity: created at seed time and
// immutable thereafter in this system's scope.
type Principal struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
}

// Sanitize returns a copy safe to serialize to API clients (no
// password hash).
func (p *Principal) Sanitize() map[string]interface{} {
	return map[string]interface{}{
		"id":       p.ID,
		"username": p.Username,
		"roles":    []string{string(p.Role)},
		"enabled":  p.Enabled,
	}
}

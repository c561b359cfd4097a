// Package security holds caller identity and token verification.
package security

import "github.com/google/uuid"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal identifies the authenticated caller of an operation.
type Principal struct {
	ID   uuid.UUID
	Role string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

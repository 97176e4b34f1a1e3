package model

import "github.com/google/uuid"

// Role distinguishes regular customers from administrators.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User is the identity resolved from the request's bearer token.
// Identity management itself lives in an external service; this is only
// what the pricing engine needs to know about the caller.
type User struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the user may perform administrative operations.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

package model

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user may hold.  The mapping from a role
// to its authority string is static and resolved once, never re-derived per
// request.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// authorities is the static role -> granted authority table.
var authorities = map[Role]string{
	RoleUser:  "ROLE_USER",
	RoleAdmin: "ROLE_ADMIN",
}

// Authority returns the authority string granted by the role, or the empty
// string for an unknown role value.
func (r Role) Authority() string { return authorities[r] }

// ParseRole normalizes a stored or transmitted role name.  Unknown names
// return false so callers can drop them instead of granting anything.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User represents an application user record as stored in the `users` table.
// A user always holds at least one role; the set is stored as a
// comma-separated list in the `roles` column and split on load.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.  Never serialized.
//  Roles        – non-empty role set (USER, ADMIN).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Roles        []Role    // users.roles (comma separated)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RoleNames returns the role set as plain strings, e.g. for embedding in a
// token's roles claim.
func (u User) RoleNames() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, string(r))
	}
	return out
}

// JoinRoles serializes a role set for the `roles` column.
func JoinRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

// SplitRoles parses the `roles` column, silently dropping unknown names.
func SplitRoles(s string) []Role {
	var out []Role
	for _, p := range strings.Split(s, ",") {
		if r, ok := ParseRole(p); ok {
			out = append(out, r)
		}
	}
	return out
}

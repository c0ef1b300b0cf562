// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP statuses: duplicate identity attributes become 400s,
// missing records become 404s.
package repository

import "errors"

// ErrUsernameExists is returned by user creation when the requested
// username is already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned by user creation when the requested email
// is already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no record.  It wraps the
// general "no such quiz/question/user" case so handlers do not depend on
// sql.ErrNoRows directly.
var ErrNotFound = errors.New("not found")

// ErrResetNotFound is returned by the reset token registry when no pending
// record matches the presented token.
var ErrResetNotFound = errors.New("reset token not found")

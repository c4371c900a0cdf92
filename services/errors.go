package services

import "errors"

// Shared errors surfaced to the HTTP layer. Lifecycle preconditions (game not
// in registration, round not active, not enough users) are deliberately not
// here: the periodic driver treats those as no-ops, not failures.
var (
	ErrNotFound      = errors.New("requested resource not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrRoundNotFound = errors.New("round not found")

	ErrInvalidCursor = errors.New("invalid feed cursor")
	ErrInvalidTeam   = errors.New("invalid team number")
)

// Package auth holds caller identity, the ownership predicate and credential primitives.
package auth

import "musiclist/internal/apperr"

// Level is a user's permission level.
type Level int

const (
	LevelRegular Level = 0
	LevelAdmin   Level = 1
)

// Principal is the resolved identity of the caller of a core operation.
type Principal struct {
	UserID int64 `json:"user_id"`
	Level  Level `json:"level"`
}

// Valid reports whether p names a user.
func (p Principal) Valid() bool {
	return p.UserID > 0
}

// IsAdmin reports whether p carries the admin level.
func (p Principal) IsAdmin() bool {
	return p.Level == LevelAdmin
}

// Require returns apperr.ErrUnauthenticated for an empty principal.
func Require(p Principal) error {
	if !p.Valid() {
		return apperr.ErrUnauthenticated
	}
	return nil
}

// CanMutate reports whether p may modify or delete an entity owned by ownerID.
// Only the owner qualifies; admin moderation is not granted here.
func CanMutate(p Principal, ownerID int64) bool {
	return p.Valid() && p.UserID == ownerID
}

// Package apperr defines the named failures returned by the core services.
package apperr

import "errors"

// Kind groups failures into the coarse categories callers map to responses.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindNotOwner
	KindNotVisible
	KindValidation
	KindDuplicate
	KindConflict
	KindUnauthenticated
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNotOwner:
		return "not_owner"
	case KindNotVisible:
		return "not_visible"
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a named outcome. Sentinels are compared by identity with errors.Is.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

var (
	// ErrUnauthenticated is returned when an operation is called without a principal.
	ErrUnauthenticated = newError(KindUnauthenticated, "unauthenticated", "authentication required")
	// ErrUnavailable marks a lost or unreachable persistence store.
	ErrUnavailable = newError(KindUnavailable, "unavailable", "storage unavailable")

	ErrEmptyInput         = newError(KindValidation, "empty_input", "required fields are empty")
	ErrPasswordMismatch   = newError(KindValidation, "password_mismatch", "passwords do not match")
	ErrPasswordTooLong    = newError(KindValidation, "password_too_long", "password must be at most 72 bytes")
	ErrSameAsCurrent      = newError(KindValidation, "same_as_current", "new username matches the current one")
	ErrUsernameTaken      = newError(KindDuplicate, "username_taken", "username already taken")
	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid_credentials", "invalid username or password")
	ErrUserNotFound       = newError(KindNotFound, "user_not_found", "user not found")

	ErrIncompleteSong = newError(KindValidation, "incomplete_input", "song name and artist are required")
	ErrSongExists     = newError(KindDuplicate, "duplicate_song", "song already exists")
	ErrSongNotFound   = newError(KindNotFound, "song_not_found", "song not found")

	ErrEmptyName        = newError(KindValidation, "empty_name", "list name is required")
	ErrSameName         = newError(KindValidation, "same_name", "new list name matches the current one")
	ErrListNameTaken    = newError(KindDuplicate, "duplicate_name", "a list with this name already exists")
	ErrListNotFound     = newError(KindNotFound, "list_not_found", "list not found")
	ErrNotOwner         = newError(KindNotOwner, "not_owner", "caller does not own this resource")
	ErrNotVisible       = newError(KindNotVisible, "not_visible", "list is private")
	ErrAlreadyMember    = newError(KindConflict, "already_member", "song is already in the list")
	ErrNotAMember       = newError(KindConflict, "not_a_member", "song is not in the list")
	ErrNotPublic        = newError(KindNotVisible, "not_public", "list is not public")
	ErrIsOwner          = newError(KindConflict, "is_owner", "cannot favorite your own list")
	ErrListNotShareable = newError(KindValidation, "list_not_owned_or_private", "attached list must be your own public list")

	ErrMessageNotFound = newError(KindNotFound, "message_not_found", "message not found")
	ErrCommentNotFound = newError(KindNotFound, "comment_not_found", "comment not found")
	ErrEmptyBody       = newError(KindValidation, "empty_body", "comment body is required")
)

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the code of the first *Error in err's chain, or "internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

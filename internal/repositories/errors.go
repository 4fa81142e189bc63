package repositories

import "errors"

var (
	// ErrNotFound indicates the requested user, video or session does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write would duplicate a unique value such as an email.
	ErrConflict = errors.New("record conflict")
	// ErrInvalidReaction is returned by React for values other than like and dislike.
	ErrInvalidReaction = errors.New("invalid reaction")
)

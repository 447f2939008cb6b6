package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrInvalidArgument indicates the supplied record is missing required fields.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidTransition indicates the record is not in a state that allows the change.
	ErrInvalidTransition = errors.New("invalid state transition")
)

package plan

import "errors"

var (
	// ErrNotFound is returned when a floor index or entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation is returned when an operation would leave the
	// document in an invalid state.
	ErrInvalidOperation = errors.New("invalid operation")
)

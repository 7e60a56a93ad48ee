package hitl

import "errors"

var (
	// ErrNotFound is returned when a request does not exist.
	ErrNotFound = errors.New("hitl request not found")

	// ErrNotPending is returned when responding to or timing out a request
	// that has already been resolved.
	ErrNotPending = errors.New("hitl request is not pending")

	// ErrAlreadyPending is returned when creating a request for a run that
	// already has a pending request (at-most-one-pending-per-run invariant).
	ErrAlreadyPending = errors.New("run already has a pending hitl request")
)

package memory

import "errors"

var (
	// ErrNotFound is returned when a memory item does not exist.
	ErrNotFound = errors.New("memory item not found")
)

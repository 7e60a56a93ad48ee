package agent

import "errors"

// ErrNotFound indicates no agent exists for the requested id.
var ErrNotFound = errors.New("agent not found")

package trace

import "errors"

var (
	// ErrStepExists is returned when appending a trace whose (run_id, step_index)
	// pair already has a recorded trace.
	ErrStepExists = errors.New("trace step already recorded")

	// ErrRunNotFound is returned when listing traces for an unknown run.
	ErrRunNotFound = errors.New("run has no recorded traces")
)

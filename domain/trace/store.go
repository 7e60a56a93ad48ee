package trace

import "context"

// Store defines persistence for reasoning traces. Implementations must
// enforce that (run_id, step_index) is unique and that traces are never
// mutated or deleted once appended.
type Store interface {
	// Append persists a new trace. It must fail if a trace already exists
	// for (t.RunID, t.StepIndex).
	Append(ctx context.Context, t *Trace) error

	// ListForRun returns all traces for a run, ordered by step_index ascending.
	ListForRun(ctx context.Context, runID string) ([]*Trace, error)

	// Count returns the number of traces recorded for a run.
	Count(ctx context.Context, runID string) (int, error)
}

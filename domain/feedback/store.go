package feedback

import "context"

// Store defines persistence for learning feedback. Records are append-only.
type Store interface {
	// Append persists a new feedback record.
	Append(ctx context.Context, f *Feedback) error

	// ListForAgent returns feedback records for an agent, most recent first.
	ListForAgent(ctx context.Context, agentID string, limit int) ([]*Feedback, error)
}

package memory

import "context"

// Store defines persistence for memory items. Writes are best-effort
// consistent with the owning execution: a store_memory failure must not
// fail the run that produced it (see application.Executor.persistMemory).
type Store interface {
	// Save persists a new memory item.
	Save(ctx context.Context, item *Item) error

	// Get retrieves a memory item by ID.
	Get(ctx context.Context, id string) (*Item, error)

	// ListForAgent returns memory items for an agent, most recent first,
	// used as the recency fallback when no vector backend is configured.
	ListForAgent(ctx context.Context, agentID string, limit int) ([]*Item, error)

	// Touch updates access bookkeeping for a memory item (update_memory_access).
	Touch(ctx context.Context, id string) error
}

package agent

import "context"

// Store is the core's read-only view onto the externally-owned agents
// table (spec.md §1: agent CRUD lives outside the core; the core only
// ever reads a configured Agent by id). Implementations backing a real
// deployment typically delegate to the same relational store the
// excluded REST layer writes through.
type Store interface {
	// Get retrieves an agent by id.
	Get(ctx context.Context, id string) (*Agent, error)
}

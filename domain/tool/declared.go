package tool

import "context"

// Declared is a database-declared tool: a row describing a capability an
// operator has registered without shipping Go code for it. The Tool
// Registry resolves these by name only when no built-in of the same name
// exists (built-ins win ties).
type Declared struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	InputSchema  Schema `json:"input_schema"`
	OutputSchema Schema `json:"output_schema"`
	Annotations  Annotations `json:"annotations"`

	// Active marks whether the declared tool should be resolved and
	// listed; an inactive row is kept for audit but never executed.
	Active bool `json:"active"`
}

// DeclaredStore persists database-declared tools. Implementations may be
// in-memory, PostgreSQL, or any other backend.
type DeclaredStore interface {
	// Get retrieves a declared tool by name, active or not.
	Get(ctx context.Context, name string) (*Declared, bool, error)

	// ListActive returns all active declared tools, optionally scoped to
	// an agent's configured tool list (empty agentID means all).
	ListActive(ctx context.Context, agentID string) ([]*Declared, error)
}

package tool

import (
	"context"
	"encoding/json"
	"sync"

	dtool "github.com/felixgeelhaar/agent-go/domain/tool"
)

// Registry resolves an action type to a handler, built-ins first. It
// implements dtool.Registry so application.Executor can use it as a drop
// in replacement for the bare in-memory registry, while additionally
// exposing the schema-query operations spec.md §4.6 names.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]dtool.Tool
	declared dtool.DeclaredStore
}

// NewRegistry builds a Registry seeded with Builtins() plus any extra
// tools (e.g. a contrib pack) the caller wants registered as built-ins.
// declared may be nil, in which case no database-declared tool is ever
// resolved.
func NewRegistry(declared dtool.DeclaredStore, extra ...dtool.Tool) *Registry {
	r := &Registry{
		builtins: make(map[string]dtool.Tool),
		declared: declared,
	}
	for _, t := range Builtins() {
		r.builtins[t.Name()] = t
	}
	for _, t := range extra {
		r.builtins[t.Name()] = t
	}
	return r
}

// Register adds a built-in tool, overwriting any existing one of the
// same name (built-ins always win ties against declared tools, but a
// caller registering twice gets the latest registration).
func (r *Registry) Register(t dtool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[t.Name()] = t
	return nil
}

// Get resolves name against the built-in table first, then falls back to
// a database-declared tool if a DeclaredStore is configured.
func (r *Registry) Get(name string) (dtool.Tool, bool) {
	r.mu.RLock()
	t, ok := r.builtins[name]
	r.mu.RUnlock()
	if ok {
		return t, true
	}
	if r.declared == nil {
		return nil, false
	}
	declared, found, err := r.declared.Get(context.Background(), name)
	if err != nil || !found || !declared.Active {
		return nil, false
	}
	return declaredTool{declared}, true
}

// List returns every built-in tool. Declared tools aren't enumerable
// without a context-bearing call; use ListAvailableTools for the full
// picture.
func (r *Registry) List() []dtool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]dtool.Tool, 0, len(r.builtins))
	for _, t := range r.builtins {
		tools = append(tools, t)
	}
	return tools
}

// Names returns the names of every built-in tool.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	return names
}

// Has reports whether name resolves to a built-in tool only (declared
// tools require a context-bearing lookup via Get).
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builtins[name]
	return ok
}

// Unregister removes a built-in tool.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.builtins[name]; !ok {
		return dtool.ErrToolNotFound
	}
	delete(r.builtins, name)
	return nil
}

// Schema is a JSON-Schema-like description of a tool, returned by
// GetToolSchema and ListAvailableTools (spec.md §4.6 "Schema query").
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// GetToolSchema returns name's schema record, preferring a built-in
// definition over a declared one.
func (r *Registry) GetToolSchema(name string) (Schema, bool) {
	t, ok := r.Get(name)
	if !ok {
		return Schema{}, false
	}
	return Schema{Name: t.Name(), Description: t.Description(), Parameters: t.InputSchema().Raw()}, true
}

// ListAvailableTools concatenates built-in schemas with active
// database-declared tools, optionally scoped to an agent.
func (r *Registry) ListAvailableTools(ctx context.Context, agentID string) []Schema {
	r.mu.RLock()
	schemas := make([]Schema, 0, len(r.builtins))
	for _, t := range r.builtins {
		schemas = append(schemas, Schema{Name: t.Name(), Description: t.Description(), Parameters: t.InputSchema().Raw()})
	}
	r.mu.RUnlock()

	if r.declared == nil {
		return schemas
	}
	declaredTools, err := r.declared.ListActive(ctx, agentID)
	if err != nil {
		return schemas
	}
	for _, d := range declaredTools {
		if _, isBuiltin := r.builtins[d.Name]; isBuiltin {
			continue // built-ins win ties
		}
		schemas = append(schemas, Schema{Name: d.Name, Description: d.Description, Parameters: d.InputSchema.Raw()})
	}
	return schemas
}

// declaredTool adapts a dtool.Declared row into a dtool.Tool. Its
// Execute always yields a mock result: the spec fixes only the shape of
// execute_tool's response for every built-in but calculate, and the same
// applies to a declared tool with no Go-side handler.
type declaredTool struct {
	d *dtool.Declared
}

func (t declaredTool) Name() string               { return t.d.Name }
func (t declaredTool) Description() string        { return t.d.Description }
func (t declaredTool) InputSchema() dtool.Schema   { return t.d.InputSchema }
func (t declaredTool) OutputSchema() dtool.Schema  { return t.d.OutputSchema }
func (t declaredTool) Annotations() dtool.Annotations { return t.d.Annotations }

func (t declaredTool) Execute(ctx context.Context, input json.RawMessage) (dtool.Result, error) {
	out, err := json.Marshal(map[string]any{"status": "mock", "tool": t.d.Name, "input": json.RawMessage(input)})
	if err != nil {
		return dtool.Result{}, err
	}
	return dtool.NewResult(out), nil
}

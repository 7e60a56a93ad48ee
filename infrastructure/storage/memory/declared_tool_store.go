package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/agent-go/domain/tool"
)

// DeclaredToolStore is an in-memory implementation of tool.DeclaredStore.
type DeclaredToolStore struct {
	tools map[string]*tool.Declared
	mu    sync.RWMutex
}

// NewDeclaredToolStore creates a new in-memory declared-tool store.
func NewDeclaredToolStore() *DeclaredToolStore {
	return &DeclaredToolStore{tools: make(map[string]*tool.Declared)}
}

// Put upserts a declared tool row. Not part of tool.DeclaredStore; it's
// the operator-facing write path a real deployment would expose through
// its excluded CRUD transport.
func (s *DeclaredToolStore) Put(d *tool.Declared) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[d.Name] = d
}

// Get retrieves a declared tool by name.
func (s *DeclaredToolStore) Get(ctx context.Context, name string) (*tool.Declared, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.tools[name]
	return d, ok, nil
}

// ListActive returns every active declared tool. agentID is accepted for
// interface compatibility; this in-memory store keeps a single global
// catalog rather than per-agent scoping.
func (s *DeclaredToolStore) ListActive(ctx context.Context, agentID string) ([]*tool.Declared, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*tool.Declared, 0, len(s.tools))
	for _, d := range s.tools {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

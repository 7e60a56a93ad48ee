package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

// AgentStore is an in-memory implementation of agent.Store. It doubles
// as the write path a real deployment's excluded CRUD transport would
// use; the core only ever calls Get.
type AgentStore struct {
	agents map[string]*agent.Agent
	mu     sync.RWMutex
}

// NewAgentStore creates a new in-memory agent store.
func NewAgentStore() *AgentStore {
	return &AgentStore{agents: make(map[string]*agent.Agent)}
}

// Put upserts an agent definition.
func (s *AgentStore) Put(a *agent.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
}

// Get retrieves an agent by id.
func (s *AgentStore) Get(ctx context.Context, id string) (*agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, agent.ErrNotFound
	}
	return a, nil
}

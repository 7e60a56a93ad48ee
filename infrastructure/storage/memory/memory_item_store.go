package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/felixgeelhaar/agent-go/domain/memory"
)

// MemoryItemStore is an in-memory implementation of memory.Store.
type MemoryItemStore struct {
	items map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryItemStore creates a new in-memory memory item store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{items: make(map[string][]byte)}
}

// Save persists a new memory item.
func (s *MemoryItemStore) Save(ctx context.Context, item *memory.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = data
	return nil
}

// Get retrieves a memory item by ID.
func (s *MemoryItemStore) Get(ctx context.Context, id string) (*memory.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.items[id]
	if !ok {
		return nil, memory.ErrNotFound
	}
	var item memory.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListForAgent returns memory items for an agent, most recent first.
func (s *MemoryItemStore) ListForAgent(ctx context.Context, agentID string, limit int) ([]*memory.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*memory.Item
	for _, data := range s.items {
		var item memory.Item
		if err := json.Unmarshal(data, &item); err != nil {
			continue
		}
		if item.AgentID == agentID {
			ic := item
			matched = append(matched, &ic)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Touch updates access bookkeeping for a memory item.
func (s *MemoryItemStore) Touch(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.items[id]
	if !ok {
		return memory.ErrNotFound
	}
	var item memory.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	item.Touch()

	updated, err := json.Marshal(&item)
	if err != nil {
		return err
	}
	s.items[id] = updated
	return nil
}

// Clear removes all memory items from the store.
func (s *MemoryItemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string][]byte)
}

// Len returns the number of stored memory items.
func (s *MemoryItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ memory.Store = (*MemoryItemStore)(nil)

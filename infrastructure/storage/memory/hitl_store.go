package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/felixgeelhaar/agent-go/domain/hitl"
)

// HITLStore is an in-memory implementation of hitl.Store.
type HITLStore struct {
	requests map[string][]byte
	mu       sync.RWMutex
}

// NewHITLStore creates a new in-memory HITL request store.
func NewHITLStore() *HITLStore {
	return &HITLStore{requests: make(map[string][]byte)}
}

// Save persists a new request.
func (s *HITLStore) Save(ctx context.Context, r *hitl.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, data := range s.requests {
		var existing hitl.Request
		if err := json.Unmarshal(data, &existing); err != nil {
			continue
		}
		if existing.RunID == r.RunID && existing.Status == hitl.StatusPending && existing.ID != r.ID {
			return hitl.ErrAlreadyPending
		}
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.requests[r.ID] = data
	return nil
}

// Get retrieves a request by ID.
func (s *HITLStore) Get(ctx context.Context, id string) (*hitl.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.requests[id]
	if !ok {
		return nil, hitl.ErrNotFound
	}
	var r hitl.Request
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update persists changes to an existing request.
func (s *HITLStore) Update(ctx context.Context, r *hitl.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[r.ID]; !ok {
		return hitl.ErrNotFound
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.requests[r.ID] = data
	return nil
}

// PendingForRun returns the pending request for a run, if any.
func (s *HITLStore) PendingForRun(ctx context.Context, runID string) (*hitl.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, data := range s.requests {
		var r hitl.Request
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		if r.RunID == runID && r.Status == hitl.StatusPending {
			return &r, nil
		}
	}
	return nil, hitl.ErrNotFound
}

// ListPending returns all currently pending requests.
func (s *HITLStore) ListPending(ctx context.Context) ([]*hitl.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*hitl.Request
	for _, data := range s.requests {
		var r hitl.Request
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		if r.Status == hitl.StatusPending {
			rc := r
			out = append(out, &rc)
		}
	}
	return out, nil
}

// Stats reports aggregate approval outcomes.
func (s *HITLStore) Stats(ctx context.Context) (hitl.Stats, error) {
	if err := ctx.Err(); err != nil {
		return hitl.Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats hitl.Stats
	for _, data := range s.requests {
		var r hitl.Request
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		stats.Total++
		switch r.Status {
		case hitl.StatusPending:
			stats.Pending++
		case hitl.StatusApproved:
			stats.Approved++
		case hitl.StatusRejected:
			stats.Rejected++
		case hitl.StatusTimedOut:
			stats.TimedOut++
		}
	}
	return stats, nil
}

// Clear removes all requests from the store.
func (s *HITLStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string][]byte)
}

// Len returns the number of stored requests.
func (s *HITLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

var _ hitl.Store = (*HITLStore)(nil)

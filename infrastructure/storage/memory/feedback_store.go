package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/felixgeelhaar/agent-go/domain/feedback"
)

// FeedbackStore is an in-memory, append-only implementation of feedback.Store.
type FeedbackStore struct {
	records []*feedback.Feedback
	mu      sync.RWMutex
}

// NewFeedbackStore creates a new in-memory feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{}
}

// Append persists a new feedback record.
func (s *FeedbackStore) Append(ctx context.Context, f *feedback.Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	var copied feedback.Feedback
	if err := json.Unmarshal(data, &copied); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, &copied)
	return nil
}

// ListForAgent returns feedback records for an agent, most recent first.
func (s *FeedbackStore) ListForAgent(ctx context.Context, agentID string, limit int) ([]*feedback.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*feedback.Feedback
	for _, f := range s.records {
		if f.AgentID == agentID {
			matched = append(matched, f)
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

// Clear removes all feedback records.
func (s *FeedbackStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// Len returns the number of stored feedback records.
func (s *FeedbackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ feedback.Store = (*FeedbackStore)(nil)

package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/run"
)

// runEntry holds a deep copy of an execution for storage.
type runEntry struct {
	data []byte
}

// RunStore is an in-memory implementation of run.Store.
type RunStore struct {
	runs map[string]*runEntry
	mu   sync.RWMutex
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*runEntry),
	}
}

// Save persists a new execution.
func (s *RunStore) Save(ctx context.Context, e *run.Execution) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.ID == "" {
		return run.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[e.ID]; exists {
		return run.ErrRunExists
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.runs[e.ID] = &runEntry{data: data}
	return nil
}

// Get retrieves an execution by ID.
func (s *RunStore) Get(ctx context.Context, id string) (*run.Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, run.ErrInvalidRunID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.runs[id]
	if !ok {
		return nil, run.ErrRunNotFound
	}

	var e run.Execution
	if err := json.Unmarshal(entry.data, &e); err != nil {
		return nil, err
	}

	return &e, nil
}

// Update updates an existing execution.
func (s *RunStore) Update(ctx context.Context, e *run.Execution) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.ID == "" {
		return run.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[e.ID]; !exists {
		return run.ErrRunNotFound
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.runs[e.ID] = &runEntry{data: data}
	return nil
}

// Delete removes an execution by ID.
func (s *RunStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if id == "" {
		return run.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[id]; !exists {
		return run.ErrRunNotFound
	}

	delete(s.runs, id)
	return nil
}

// List returns executions matching the filter.
func (s *RunStore) List(ctx context.Context, filter run.ListFilter) ([]*run.Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*run.Execution

	for _, entry := range s.runs {
		var e run.Execution
		if err := json.Unmarshal(entry.data, &e); err != nil {
			continue
		}

		if !s.matchesFilter(&e, filter) {
			continue
		}

		result = append(result, &e)
	}

	s.sortRuns(result, filter.OrderBy, filter.Descending)

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*run.Execution{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the number of executions matching the filter.
func (s *RunStore) Count(ctx context.Context, filter run.ListFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64

	for _, entry := range s.runs {
		var e run.Execution
		if err := json.Unmarshal(entry.data, &e); err != nil {
			continue
		}

		if s.matchesFilter(&e, filter) {
			count++
		}
	}

	return count, nil
}

// Summary returns aggregate statistics.
func (s *RunStore) Summary(ctx context.Context, filter run.ListFilter) (run.Summary, error) {
	if err := ctx.Err(); err != nil {
		return run.Summary{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary run.Summary
	var totalDuration time.Duration

	for _, entry := range s.runs {
		var e run.Execution
		if err := json.Unmarshal(entry.data, &e); err != nil {
			continue
		}

		if !s.matchesFilter(&e, filter) {
			continue
		}

		summary.TotalRuns++

		switch e.Status {
		case run.StatusCompleted:
			summary.CompletedRuns++
			totalDuration += e.Duration()
		case run.StatusFailed, run.StatusBlocked, run.StatusTimeout:
			summary.FailedRuns++
			totalDuration += e.Duration()
		case run.StatusRunning:
			summary.RunningRuns++
		}
	}

	if summary.CompletedRuns+summary.FailedRuns > 0 {
		summary.AverageDuration = totalDuration / time.Duration(summary.CompletedRuns+summary.FailedRuns)
	}

	return summary, nil
}

// matchesFilter checks if an execution matches the filter criteria.
func (s *RunStore) matchesFilter(e *run.Execution, filter run.ListFilter) bool {
	if len(filter.Status) > 0 {
		found := false
		for _, status := range filter.Status {
			if e.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.AgentID != "" && e.AgentID != filter.AgentID {
		return false
	}

	if !filter.FromTime.IsZero() && e.StartedAt.Before(filter.FromTime) {
		return false
	}

	if !filter.ToTime.IsZero() && e.StartedAt.After(filter.ToTime) {
		return false
	}

	if filter.GoalPattern != "" && !strings.Contains(e.Task.Description, filter.GoalPattern) {
		return false
	}

	return true
}

// sortRuns sorts executions by the specified field.
func (s *RunStore) sortRuns(runs []*run.Execution, orderBy run.OrderBy, descending bool) {
	sort.Slice(runs, func(i, j int) bool {
		var less bool

		switch orderBy {
		case run.OrderByStartTime:
			less = runs[i].StartedAt.Before(runs[j].StartedAt)
		case run.OrderByEndTime:
			less = runs[i].CompletedAt.Before(runs[j].CompletedAt)
		case run.OrderByID:
			less = runs[i].ID < runs[j].ID
		case run.OrderByStatus:
			less = string(runs[i].Status) < string(runs[j].Status)
		default:
			less = runs[i].StartedAt.Before(runs[j].StartedAt)
		}

		if descending {
			return !less
		}
		return less
	})
}

// Clear removes all executions from the store.
func (s *RunStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]*runEntry)
}

// Len returns the number of stored executions.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Ensure RunStore implements run.Store and run.SummaryProvider
var (
	_ run.Store           = (*RunStore)(nil)
	_ run.SummaryProvider = (*RunStore)(nil)
)

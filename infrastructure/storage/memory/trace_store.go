package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/agent-go/domain/trace"
)

// TraceStore is an in-memory implementation of trace.Store. Traces are
// append-only: Append rejects a duplicate (run_id, step_index) pair and
// there is no update or delete operation.
type TraceStore struct {
	traces map[string][]byte // key: runID + "/" + stepIndex
	byRun  map[string][]int  // runID -> recorded step indexes, for Count/ListForRun
	mu     sync.RWMutex
}

// NewTraceStore creates a new in-memory trace store.
func NewTraceStore() *TraceStore {
	return &TraceStore{
		traces: make(map[string][]byte),
		byRun:  make(map[string][]int),
	}
}

func traceKey(runID string, step int) string {
	return fmt.Sprintf("%s/%d", runID, step)
}

// Append persists a new trace, rejecting duplicate steps for a run.
func (s *TraceStore) Append(ctx context.Context, t *trace.Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := traceKey(t.RunID, t.StepIndex)
	if _, exists := s.traces[key]; exists {
		return trace.ErrStepExists
	}

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	s.traces[key] = data
	s.byRun[t.RunID] = append(s.byRun[t.RunID], t.StepIndex)
	return nil
}

// ListForRun returns all traces for a run, ordered by step_index ascending.
func (s *TraceStore) ListForRun(ctx context.Context, runID string) ([]*trace.Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := append([]int(nil), s.byRun[runID]...)
	sort.Ints(steps)

	out := make([]*trace.Trace, 0, len(steps))
	for _, step := range steps {
		var t trace.Trace
		if err := json.Unmarshal(s.traces[traceKey(runID, step)], &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, nil
}

// Count returns the number of traces recorded for a run.
func (s *TraceStore) Count(ctx context.Context, runID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byRun[runID]), nil
}

// Clear removes all traces from the store.
func (s *TraceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces = make(map[string][]byte)
	s.byRun = make(map[string][]int)
}

// Len returns the total number of stored traces across all runs.
func (s *TraceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}

var _ trace.Store = (*TraceStore)(nil)

package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/memory"
	"github.com/felixgeelhaar/agent-go/domain/run"
	"github.com/felixgeelhaar/agent-go/domain/vector"
	"github.com/felixgeelhaar/agent-go/infrastructure/logging"
)

// DefaultRelevantMemories is the spec's k=5 default for semantic
// retrieval in LoadContext.
const DefaultRelevantMemories = 5

// RunContext is the per-iteration context folded forward by the
// executor: an initial snapshot loaded once at INIT plus the running
// action history and shared knowledge accumulated by UPDATE. It is
// never shared across runs.
type RunContext struct {
	AgentID     string    `json:"agent_id"`
	ExecutionID string    `json:"execution_id"`
	Task        run.Task  `json:"task"`
	Timestamp   time.Time `json:"timestamp"`

	RelevantMemories []memory.Item `json:"relevant_memories"`

	ActionHistory   []HistoryEntry         `json:"action_history"`
	SharedKnowledge map[string]json.RawMessage `json:"shared_knowledge"`
}

// HistoryEntry is one folded action/observation pair.
type HistoryEntry struct {
	ActionType  string          `json:"action_type"`
	Action      json.RawMessage `json:"action"`
	Observation json.RawMessage `json:"observation"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Snapshot renders the context as the map shape a Reasoning Engine
// request embeds in its "Current Context:" prompt section.
func (c *RunContext) Snapshot() map[string]any {
	return map[string]any{
		"agent_id":         c.AgentID,
		"execution_id":     c.ExecutionID,
		"timestamp":        c.Timestamp,
		"relevant_memories": c.RelevantMemories,
		"shared_knowledge":  c.SharedKnowledge,
	}
}

// SharedKnowledgeSnapshot decodes SharedKnowledge into a plain
// map[string]any, the shape a safety.Condition's ContextState expects.
// Entries that fail to decode (non-JSON-object content) are skipped.
func (c *RunContext) SharedKnowledgeSnapshot() map[string]any {
	out := make(map[string]any, len(c.SharedKnowledge))
	for k, raw := range c.SharedKnowledge {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out[k] = v
	}
	return out
}

// ContextManager constructs the initial run context, folds per-step
// results into it, and owns the memory write/retrieval path described
// in spec.md §4.4. It composes a relational memory.Store with a
// vector.Store exactly the way application/engine.go once composed
// knowledge.Store/artifact.Store into the run loop — cross-cutting
// composition that belongs in application/, not domain/.
type ContextManager struct {
	memories memory.Store
	vectors  vector.Store
	topK     int
}

// NewContextManager creates a ContextManager. topK <= 0 uses
// DefaultRelevantMemories.
func NewContextManager(memories memory.Store, vectors vector.Store, topK int) *ContextManager {
	if topK <= 0 {
		topK = DefaultRelevantMemories
	}
	return &ContextManager{memories: memories, vectors: vectors, topK: topK}
}

// LoadContext builds the initial context for a run: relevant memories by
// semantic similarity to the task description, falling back to the k
// most recent memory items by creation time if the vector layer fails.
func (m *ContextManager) LoadContext(ctx context.Context, agentID, executionID string, task run.Task) (*RunContext, error) {
	rc := &RunContext{
		AgentID:         agentID,
		ExecutionID:     executionID,
		Task:            task,
		Timestamp:       time.Now(),
		SharedKnowledge: make(map[string]json.RawMessage),
	}

	memories, err := m.retrieveRelevantMemories(ctx, agentID, task.Description)
	if err != nil {
		logging.Debug().
			Add(logging.RunID(executionID)).
			Add(logging.ErrorField(err)).
			Msg("semantic retrieval failed, falling back to recency")
		memories, err = m.recentMemories(ctx, agentID)
		if err != nil {
			return nil, err
		}
	}
	rc.RelevantMemories = memories

	return rc, nil
}

// retrieveRelevantMemories embeds the query and searches the vector
// store, resolving each hit back to its relational memory item (skipping
// hits whose backing item has since been deleted).
func (m *ContextManager) retrieveRelevantMemories(ctx context.Context, agentID, query string) ([]memory.Item, error) {
	if m.vectors == nil {
		return nil, vector.ErrNotFound
	}

	embedding, err := m.vectors.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := m.vectors.SearchSimilar(ctx, agentID, embedding, m.topK)
	if err != nil {
		return nil, err
	}

	items := make([]memory.Item, 0, len(results))
	for _, r := range results {
		if r.MemoryID == "" {
			continue
		}
		item, err := m.memories.Get(ctx, r.MemoryID)
		if err != nil {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// recentMemories is the fallback retrieval path when the vector layer is
// unavailable: the k most recent items for the agent.
func (m *ContextManager) recentMemories(ctx context.Context, agentID string) ([]memory.Item, error) {
	items, err := m.memories.ListForAgent(ctx, agentID, m.topK)
	if err != nil {
		return nil, err
	}
	out := make([]memory.Item, len(items))
	for i, it := range items {
		out[i] = *it
	}
	return out, nil
}

// UpdateContext folds one step's action/observation pair into the
// running context: the pair is always appended to ActionHistory, and a
// successful observation carrying a result overwrites
// SharedKnowledge[action.Type] (last-writer-wins per action type).
func (m *ContextManager) UpdateContext(rc *RunContext, actionType string, action, observation json.RawMessage, observationStatus string, observationResult json.RawMessage) {
	rc.ActionHistory = append(rc.ActionHistory, HistoryEntry{
		ActionType:  actionType,
		Action:      action,
		Observation: observation,
		Timestamp:   time.Now(),
	})

	if observationStatus == "success" && len(observationResult) > 0 {
		rc.SharedKnowledge[actionType] = observationResult
	}
}

// StoreMemory writes a memory item and its vector embedding. The
// relational write is authoritative: if the vector write fails, the
// item is still searchable through the recency fallback, so StoreMemory
// only reports an error when the relational write itself fails.
func (m *ContextManager) StoreMemory(ctx context.Context, agentID, runID string, kind memory.Kind, content string, metadata json.RawMessage) (*memory.Item, error) {
	item := memory.New(newID("mem"), agentID, runID, kind, content, metadata)
	if err := m.memories.Save(ctx, item); err != nil {
		return nil, err
	}

	if m.vectors == nil {
		return item, nil
	}

	embedding, err := m.vectors.GenerateEmbedding(ctx, content)
	if err != nil {
		logging.Debug().Add(logging.ErrorField(err)).Msg("embedding generation failed, memory item stored relationally only")
		return item, nil
	}

	v := &vector.Vector{
		ID:        item.ID,
		AgentID:   agentID,
		MemoryID:  item.ID,
		Embedding: embedding,
		Text:      content,
	}
	if err := m.vectors.StoreMemory(ctx, v); err != nil {
		logging.Debug().Add(logging.ErrorField(err)).Msg("vector write failed, memory item stored relationally only")
	}

	return item, nil
}

// TouchMemory records an access against a memory item (update_memory_access).
func (m *ContextManager) TouchMemory(ctx context.Context, id string) error {
	return m.memories.Touch(ctx, id)
}

// Package trace provides the Reasoning Trace entity: one persisted record
// per ReAct loop step, the audit unit of the system.
package trace

import (
	"encoding/json"
	"time"
)

// Action is the structured action a reasoning step decided to take.
// Type is open (not a closed enum): new tools register new action types,
// and "finish" is the one type the executor treats as terminal.
type Action struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Observation is the structured result of executing an Action.
type Observation struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Trace is one step of the ReAct loop. It is created after every step,
// including the terminal "finish" step, and is never mutated once written.
type Trace struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	AgentID   string    `json:"agent_id"`
	StepIndex int       `json:"step_index"`
	Thought   string    `json:"thought"`
	Action    Action    `json:"action"`
	Observation Observation `json:"observation"`
	Reflection  string      `json:"reflection,omitempty"`
	TokensUsed  int         `json:"tokens_used"`
	LatencyMS   int         `json:"latency_ms"`
	CreatedAt   time.Time   `json:"created_at"`
}

// New creates a Trace for the given step. id is assigned by the caller
// (typically the store, or a uuid generator at the call site) so that
// in-memory and relational stores agree on id format.
func New(id, runID, agentID string, stepIndex int, thought string, action Action, observation Observation, reflection string, tokensUsed, latencyMS int) *Trace {
	return &Trace{
		ID:          id,
		RunID:       runID,
		AgentID:     agentID,
		StepIndex:   stepIndex,
		Thought:     thought,
		Action:      action,
		Observation: observation,
		Reflection:  reflection,
		TokensUsed:  tokensUsed,
		LatencyMS:   latencyMS,
		CreatedAt:   time.Now(),
	}
}

// IsFinish reports whether this trace's action is the terminal "finish".
func (t *Trace) IsFinish() bool {
	return t.Action.Type == "finish"
}

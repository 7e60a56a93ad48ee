package run

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of an Execution.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
	// StatusBlocked is a terminal status reached when a guardrail or an
	// HITL rejection/timeout stops the run. The source spec's Execution
	// status enum (data model §3) omits "blocked" while ExecutionResult's
	// status enum (§4.1) requires it; this resolves the gap by extending
	// Execution's persisted status set rather than losing the outcome.
	StatusBlocked Status = "blocked"
)

// IsTerminal reports whether the status ends the execution's lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout, StatusBlocked:
		return true
	default:
		return false
	}
}

// Task is the unit of work handed to the executor.
type Task struct {
	ID          string         `json:"id,omitempty"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Execution is a single agent-task invocation (the "run").
type Execution struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Status    Status `json:"status"`
	Task      Task   `json:"task"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`

	Output   json.RawMessage `json:"output,omitempty"`
	Error    string          `json:"error,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`

	Iterations   int `json:"iterations"`
	ActionsTaken int `json:"actions_taken"`
	Reason       string `json:"reason,omitempty"`
}

// New creates a new, pending Execution for the given agent and task.
func New(id, agentID string, task Task) *Execution {
	return &Execution{
		ID:        id,
		AgentID:   agentID,
		Status:    StatusPending,
		Task:      task,
		StartedAt: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// Start transitions a pending execution to running.
func (e *Execution) Start() error {
	if e.Status != StatusPending {
		return ErrInvalidTransition
	}
	e.Status = StatusRunning
	return nil
}

// Complete marks the execution completed with the given output.
func (e *Execution) Complete(output json.RawMessage) {
	e.Status = StatusCompleted
	e.Output = output
	e.CompletedAt = time.Now()
}

// Fail marks the execution failed with the given error message.
func (e *Execution) Fail(err string) {
	e.Status = StatusFailed
	e.Error = err
	e.CompletedAt = time.Now()
}

// Block marks the execution blocked (guardrail deny or HITL rejection/timeout).
func (e *Execution) Block(reason string) {
	e.Status = StatusBlocked
	e.Reason = reason
	e.CompletedAt = time.Now()
}

// Timeout marks the execution timed out after exhausting max_iterations.
func (e *Execution) Timeout(reason string) {
	e.Status = StatusTimeout
	e.Reason = reason
	e.CompletedAt = time.Now()
}

// Cancel marks the execution cancelled.
func (e *Execution) Cancel() {
	e.Status = StatusCancelled
	e.CompletedAt = time.Now()
}

// Duration returns the elapsed time between start and completion. For a
// still-running execution it returns the elapsed time so far.
func (e *Execution) Duration() time.Duration {
	if e.CompletedAt.IsZero() {
		return time.Since(e.StartedAt)
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// ResultStatus is the exit-level status returned by execute_task. It is a
// distinct, narrower enum from Status: the persisted Execution row tracks
// pending/running/cancelled alongside its terminal outcomes, while the
// caller-facing result only ever reports one of these four values.
type ResultStatus string

const (
	ResultCompleted ResultStatus = "completed"
	ResultBlocked   ResultStatus = "blocked"
	ResultTimeout   ResultStatus = "timeout"
	ResultError     ResultStatus = "error"
)

// Result is the outcome handed back to the caller of execute_task.
type Result struct {
	Status       ResultStatus    `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	Iterations   int             `json:"iterations"`
	ActionsTaken int             `json:"actions_taken"`
	Reason       string          `json:"reason,omitempty"`
	Error        string          `json:"error,omitempty"`
}

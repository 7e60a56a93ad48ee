package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for agent runtime logging.

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// StageField adds a loop stage field.
func StageField(s agent.Stage) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("stage", s.String())
	}
}

// FromStage adds a from_stage field for transitions.
func FromStage(s agent.Stage) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_stage", s.String())
	}
}

// ToStage adds a to_stage field for transitions.
func ToStage(s agent.Stage) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_stage", s.String())
	}
}

// ToolName adds a tool name field.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// ActionType adds an action type field.
func ActionType(t string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action_type", t)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// DurationNs adds a duration field in nanoseconds.
func DurationNs(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ns", d.Nanoseconds())
	}
}

// Cached adds a cached field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Approved adds an approval status field.
func Approved(approved bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("approved", approved)
	}
}

// Approver adds an approver field.
func Approver(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("approver", name)
	}
}

// TraceStepIndex adds a reasoning trace step index field.
func TraceStepIndex(idx int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("trace_step_index", idx)
	}
}

// HITLRequestID adds a HITL request id field.
func HITLRequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("hitl_request_id", id)
	}
}

// MemoryType adds a memory item kind field.
func MemoryType(kind string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("memory_type", kind)
	}
}

// RiskLevel adds a safety risk level field.
func RiskLevel(level string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("risk_level", level)
	}
}

// Goal adds a goal/task-description field.
func Goal(goal string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("goal", goal)
	}
}

// Summary adds a summary field.
func Summary(summary string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("summary", summary)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

// logStageEntry updates the context's current stage on entry. In statekit,
// actions receive a pointer to the context. Since our context is *Context,
// actions receive **Context.
func logStageEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx

	var newStage agent.Stage
	if payload, ok := event.Payload.(TransitionPayload); ok {
		newStage = payload.ToStage
	} else {
		newStage = stageFromEventType(event.Type)
	}

	if newStage != "" {
		c.Stage = newStage
	}
}

// ActionWithReason creates a payload that includes a reason with a
// transition event.
func ActionWithReason(reason string) TransitionPayload {
	return TransitionPayload{Reason: reason}
}

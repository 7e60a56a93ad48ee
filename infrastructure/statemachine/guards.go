package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

// guardApproved gates the AwaitApproval -> Act transition on the HITL
// decision recorded on the context by the caller before sending the event.
func guardApproved(ctx *Context, _ statekit.Event) bool {
	if ctx == nil {
		return false
	}
	return ctx.ApprovalGranted
}

// stageFromEventType derives the target stage from an event type.
func stageFromEventType(eventType statekit.EventType) agent.Stage {
	switch eventType {
	case "REASON":
		return agent.StageReason
	case "VALIDATE":
		return agent.StageValidate
	case "AWAIT_APPROVAL":
		return agent.StageAwaitApproval
	case "ACT":
		return agent.StageAct
	case "OBSERVE":
		return agent.StageObserve
	case "PERSIST":
		return agent.StagePersist
	case "UPDATE":
		return agent.StageUpdate
	case "DONE":
		return agent.StageDone
	case "FAIL":
		return agent.StageFailed
	default:
		return agent.Stage(eventType)
	}
}

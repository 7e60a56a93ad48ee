// Package statemachine provides the statekit integration for the agent
// control loop.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/agent-go/domain/agent"
	"github.com/felixgeelhaar/agent-go/domain/run"
)

// Context carries run state through the state machine.
type Context struct {
	Execution *run.Execution
	Stage     agent.Stage

	// ApprovalGranted records the outcome of the last AWAIT_APPROVAL stage,
	// consulted by the guard on the AwaitApproval -> Act transition.
	ApprovalGranted bool
}

// NewContext creates a new machine context for an execution.
func NewContext(execution *run.Execution) *Context {
	return &Context{Execution: execution, Stage: agent.StageInit}
}

// State IDs as StateID type for statekit.
const (
	stateInit          statekit.StateID = statekit.StateID(agent.StageInit)
	stateReason        statekit.StateID = statekit.StateID(agent.StageReason)
	stateValidate      statekit.StateID = statekit.StateID(agent.StageValidate)
	stateAwaitApproval statekit.StateID = statekit.StateID(agent.StageAwaitApproval)
	stateAct           statekit.StateID = statekit.StateID(agent.StageAct)
	stateObserve       statekit.StateID = statekit.StateID(agent.StageObserve)
	statePersist       statekit.StateID = statekit.StateID(agent.StagePersist)
	stateUpdate        statekit.StateID = statekit.StateID(agent.StageUpdate)
	stateDone          statekit.StateID = statekit.StateID(agent.StageDone)
	stateFailed        statekit.StateID = statekit.StateID(agent.StageFailed)
)

// NewLoopMachine creates the canonical ReAct loop statechart: INIT ->
// REASON -> VALIDATE -> (AWAIT_APPROVAL)? -> ACT -> OBSERVE -> PERSIST ->
// UPDATE -> {REASON | DONE | FAILED}. Any non-terminal stage may also fail.
func NewLoopMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("apa-loop").
		WithInitial(stateInit).
		WithContext(&Context{}).
		WithAction("logEntry", logStageEntry).
		WithGuard("approved", guardApproved).
		State(stateInit).
			OnEntry("logEntry").
			On("REASON").Target(stateReason).Do("logEntry").
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(stateReason).
			OnEntry("logEntry").
			On("VALIDATE").Target(stateValidate).Do("logEntry").
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(stateValidate).
			OnEntry("logEntry").
			On("AWAIT_APPROVAL").Target(stateAwaitApproval).Do("logEntry").
			On("ACT").Target(stateAct).Do("logEntry").
			On("DONE").Target(stateDone).Do("logEntry").
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(stateAwaitApproval).
			OnEntry("logEntry").
			On("ACT").Target(stateAct).Guard("approved").Do("logEntry").
			On("DONE").Target(stateDone).Do("logEntry"). // rejected or timed out
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(stateAct).
			OnEntry("logEntry").
			On("OBSERVE").Target(stateObserve).Do("logEntry").
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(stateObserve).
			OnEntry("logEntry").
			On("PERSIST").Target(statePersist).Do("logEntry").
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(statePersist).
			OnEntry("logEntry").
			On("UPDATE").Target(stateUpdate).Do("logEntry").
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(stateUpdate).
			OnEntry("logEntry").
			On("REASON").Target(stateReason).Do("logEntry"). // loop to next iteration
			On("DONE").Target(stateDone).Do("logEntry").
			On("FAIL").Target(stateFailed).Do("logEntry").
			Done().
		State(stateDone).
			Final().
			OnEntry("logEntry").
			Done().
		State(stateFailed).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}

// EventForStage returns the event type that drives the loop into stage.
func EventForStage(to agent.Stage) statekit.EventType {
	switch to {
	case agent.StageReason:
		return "REASON"
	case agent.StageValidate:
		return "VALIDATE"
	case agent.StageAwaitApproval:
		return "AWAIT_APPROVAL"
	case agent.StageAct:
		return "ACT"
	case agent.StageObserve:
		return "OBSERVE"
	case agent.StagePersist:
		return "PERSIST"
	case agent.StageUpdate:
		return "UPDATE"
	case agent.StageDone:
		return "DONE"
	case agent.StageFailed:
		return "FAIL"
	default:
		return statekit.EventType(to)
	}
}

// StageFromMachine converts a statekit state id back to a Stage.
func StageFromMachine(stateID statekit.StateID) agent.Stage {
	return agent.Stage(stateID)
}

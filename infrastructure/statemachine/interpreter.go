package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToStage agent.Stage
	Reason  string
}

// Interpreter wraps the statekit interpreter with loop-specific
// functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the loop state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{interp: interp, ctx: ctx}
}

// Start initializes the interpreter and enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Stage = StageFromMachine(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Stage returns the current stage.
func (i *Interpreter) Stage() agent.Stage {
	return StageFromMachine(i.interp.State().Value)
}

// SetApproval records the outcome of a HITL decision so the guard on the
// AwaitApproval -> Act transition can consult it on the next Transition
// call.
func (i *Interpreter) SetApproval(granted bool) {
	i.ctx.ApprovalGranted = granted
}

// Transition attempts to move the loop into the target stage.
func (i *Interpreter) Transition(to agent.Stage, reason string) error {
	event := statekit.Event{
		Type:    EventForStage(to),
		Payload: TransitionPayload{ToStage: to, Reason: reason},
	}

	i.interp.Send(event)

	newStage := StageFromMachine(i.interp.State().Value)
	if newStage != to {
		return fmt.Errorf("transition to %s not allowed from current stage %s", to, i.ctx.Stage)
	}
	i.ctx.Stage = newStage

	return nil
}

// IsTerminal returns true if the interpreter is in a terminal stage.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// Matches checks if the current stage matches the given state id.
func (i *Interpreter) Matches(stateID string) bool {
	return i.interp.Matches(statekit.StateID(stateID))
}

// ResumeFrom restores the interpreter to a specific stage, used when
// resuming a run that was persisted mid-loop.
func (i *Interpreter) ResumeFrom(stage agent.Stage) error {
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "apa-loop",
		CurrentState: statekit.StateID(stage),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}

	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore stage: %w", err)
	}

	i.ctx.Stage = stage

	return nil
}

// Package application wires the domain entities and infrastructure
// adapters into the control loop the system exists to run: reason, check
// safety, maybe wait on a human, act, observe, persist, update, and either
// loop or terminate. It replaces the teacher's business-state engine with
// the fixed ReAct loop this system implements.
package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/agent-go/domain/agent"
	"github.com/felixgeelhaar/agent-go/domain/feedback"
	"github.com/felixgeelhaar/agent-go/domain/hitl"
	domainmiddleware "github.com/felixgeelhaar/agent-go/domain/middleware"
	"github.com/felixgeelhaar/agent-go/domain/memory"
	"github.com/felixgeelhaar/agent-go/domain/run"
	"github.com/felixgeelhaar/agent-go/domain/safety"
	"github.com/felixgeelhaar/agent-go/domain/tool"
	"github.com/felixgeelhaar/agent-go/domain/trace"
	"github.com/felixgeelhaar/agent-go/infrastructure/logging"
	"github.com/felixgeelhaar/agent-go/infrastructure/reasoning"
	"github.com/felixgeelhaar/agent-go/infrastructure/resilience"
	"github.com/felixgeelhaar/agent-go/infrastructure/statemachine"
)

// DefaultApprovalTimeout bounds how long the executor waits on a pending
// HITL decision before treating it as timed out, matching spec.md §6's
// APPROVAL_TIMEOUT_SECONDS default.
const DefaultApprovalTimeout = 3600 * time.Second

// ErrExecutionNotRunnable is returned when Execute is asked to drive an
// execution whose status doesn't permit starting or resuming it.
var ErrExecutionNotRunnable = errors.New("execution not in a runnable state")

// Executor is the Agent Executor: it owns no state across runs beyond the
// collaborators it was built with, and drives exactly one Execution per
// call to Execute.
type Executor struct {
	runs     run.Store
	traces   trace.Store
	feedback feedback.Store
	hitl     *hitl.Coordinator
	tools    tool.Registry
	reasoner *reasoning.Engine
	resilent *resilience.Executor
	context  *ContextManager

	// toolChain wraps tool dispatch with cross-cutting middleware
	// (logging, validation, caching, ...). A nil chain means act calls
	// the resilient executor directly, matching the executor's
	// behavior before any middleware was configured.
	toolChain domainmiddleware.Middleware

	approvalTimeout time.Duration

	inFlight sync.Map // execution id -> struct{}, advisory single-owner lock
}

// NewExecutor builds an Executor from its collaborators. approvalTimeout
// <= 0 uses DefaultApprovalTimeout.
func NewExecutor(
	runs run.Store,
	traces trace.Store,
	feedbackStore feedback.Store,
	coordinator *hitl.Coordinator,
	tools tool.Registry,
	reasoner *reasoning.Engine,
	resilient *resilience.Executor,
	contextManager *ContextManager,
	approvalTimeout time.Duration,
) *Executor {
	if approvalTimeout <= 0 {
		approvalTimeout = DefaultApprovalTimeout
	}
	return &Executor{
		runs:            runs,
		traces:          traces,
		feedback:        feedbackStore,
		hitl:            coordinator,
		tools:           tools,
		reasoner:        reasoner,
		resilent:        resilient,
		context:         contextManager,
		approvalTimeout: approvalTimeout,
	}
}

// WithToolMiddleware installs a middleware chain around tool dispatch in
// act, wrapping the resilient executor rather than replacing it. Pass
// domainmiddleware.Chain(mw...) to compose more than one.
func (e *Executor) WithToolMiddleware(chain domainmiddleware.Middleware) *Executor {
	e.toolChain = chain
	return e
}

// Coordinator returns the HITL coordinator this executor suspends on, so
// that a caller responding to a pending approval (e.g. interfaces/api's
// hitl_respond) wakes the correct in-process waiter.
func (e *Executor) Coordinator() *hitl.Coordinator {
	return e.hitl
}

// newID mints a prefixed entity id. Run ids keep the teacher's
// time-ordered "<prefix>-<unixnano>-<hex>" shape (useful for anyone
// grepping logs by creation order); every other entity uses a plain
// uuid, matching the rest of the domain layer.
func newID(prefix string) string {
	if prefix == "run" {
		var b [4]byte
		_, _ = rand.Read(b[:])
		return fmt.Sprintf("run-%d-%s", time.Now().UnixNano(), hex.EncodeToString(b[:]))
	}
	return prefix + "-" + uuid.NewString()
}

// NewExecution creates a pending Execution for agentID/task with a
// freshly minted run id, in the teacher's "<prefix>-<unixnano>-<hex>"
// shape.
func NewExecution(agentID string, task run.Task) *run.Execution {
	return run.New(newID("run"), agentID, task)
}

// Execute drives execution through the ReAct control loop until it
// reaches a terminal status, honoring ctx cancellation between
// iterations. It claims advisory ownership of execution.ID for the
// duration of the call; a second concurrent call for the same id fails
// fast with run.ErrAlreadyRunning.
// maxIterations overrides the agent's configured iteration cap for this
// call; nil uses agent.EffectiveMaxIterations(). A caller-supplied 0 is
// honored literally: the loop exits immediately with zero Traces and a
// timeout result, per the zero-iteration boundary case.
func (e *Executor) Execute(ctx context.Context, ag *agent.Agent, execution *run.Execution, maxIterations *int) (*run.Result, error) {
	if _, loaded := e.inFlight.LoadOrStore(execution.ID, struct{}{}); loaded {
		return nil, run.ErrAlreadyRunning
	}
	defer e.inFlight.Delete(execution.ID)

	iterationCap := ag.EffectiveMaxIterations()
	if maxIterations != nil {
		iterationCap = *maxIterations
	}
	if iterationCap < 0 {
		iterationCap = 0
	}

	switch execution.Status {
	case run.StatusPending:
		if err := execution.Start(); err != nil {
			return nil, err
		}
		if err := e.runs.Update(ctx, execution); err != nil {
			return nil, err
		}
	case run.StatusRunning:
		// resuming an execution already marked running
	default:
		return nil, ErrExecutionNotRunnable
	}

	guardrails, err := safety.ParseGuardrails(ag.SafetyGuardrails)
	if err != nil {
		return e.fail(ctx, execution, ag, err.Error())
	}
	guardEngine := safety.NewEngine(guardrails)

	rc, err := e.context.LoadContext(ctx, ag.ID, execution.ID, execution.Task)
	if err != nil {
		return e.fail(ctx, execution, ag, err.Error())
	}

	machine, err := statemachine.NewLoopMachine()
	if err != nil {
		return e.fail(ctx, execution, ag, err.Error())
	}
	mctx := statemachine.NewContext(execution)
	interp := statemachine.NewInterpreter(machine, mctx)
	interp.Start()

	var (
		prevActions      []trace.Action
		prevObservations []trace.Observation
		actionsTaken     int
	)

	for step := 0; step < iterationCap; step++ {
		select {
		case <-ctx.Done():
			return e.cancel(ctx, execution)
		default:
		}

		if err := interp.Transition(agent.StageReason, ""); err != nil {
			return e.fail(ctx, execution, ag, err.Error())
		}

		resp, err := e.reasoner.Reason(ctx, reasoning.Request{
			Agent:                ag,
			TaskDescription:      execution.Task.Description,
			Context:              rc.Snapshot(),
			PreviousActions:      prevActions,
			PreviousObservations: prevObservations,
		})
		if err != nil {
			return e.fail(ctx, execution, ag, err.Error())
		}

		if err := interp.Transition(agent.StageValidate, ""); err != nil {
			return e.fail(ctx, execution, ag, err.Error())
		}

		if resp.Action.Type == "finish" {
			observation := trace.Observation{Status: "success", Result: finishResult(resp.Action)}
			if err := interp.Transition(agent.StageDone, "task finished"); err != nil {
				return e.fail(ctx, execution, ag, err.Error())
			}
			if err := e.persistTrace(ctx, execution, ag.ID, step, resp, observation); err != nil {
				return e.fail(ctx, execution, ag, err.Error())
			}
			execution.Iterations = step
			execution.ActionsTaken = actionsTaken
			execution.Complete(observation.Result)
			if err := e.runs.Update(ctx, execution); err != nil {
				return nil, err
			}
			e.emitFeedback(ctx, execution, ag, feedback.OutcomeSuccess, nil)
			return &run.Result{Status: run.ResultCompleted, Result: observation.Result, Iterations: step, ActionsTaken: actionsTaken}, nil
		}

		var actionParams map[string]any
		if len(resp.Action.Parameters) > 0 {
			_ = json.Unmarshal(resp.Action.Parameters, &actionParams)
		}
		decision := guardEngine.Evaluate(safety.EvaluationContext{
			RunID:        execution.ID,
			ActionType:   resp.Action.Type,
			Parameters:   actionParams,
			ContextState: rc.SharedKnowledgeSnapshot(),
		})

		if !decision.Allowed && decision.RequiresHumanApproval {
			if err := interp.Transition(agent.StageAwaitApproval, ""); err != nil {
				return e.fail(ctx, execution, ag, err.Error())
			}
			status, approveErr := e.requestApproval(ctx, execution, ag, resp.Action, decision)
			if approveErr != nil {
				return e.fail(ctx, execution, ag, approveErr.Error())
			}
			interp.SetApproval(status == hitl.StatusApproved)
			if status != hitl.StatusApproved {
				reason := "HITL request " + string(status)
				observation := trace.Observation{Status: "blocked", Error: reason}
				if err := interp.Transition(agent.StageDone, reason); err != nil {
					return e.fail(ctx, execution, ag, err.Error())
				}
				if err := e.persistTrace(ctx, execution, ag.ID, step, resp, observation); err != nil {
					return e.fail(ctx, execution, ag, err.Error())
				}
				execution.Iterations = step
				execution.ActionsTaken = actionsTaken
				execution.Block(reason)
				if err := e.runs.Update(ctx, execution); err != nil {
					return nil, err
				}
				return &run.Result{Status: run.ResultBlocked, Iterations: step, ActionsTaken: actionsTaken, Reason: reason}, nil
			}
			if err := interp.Transition(agent.StageAct, ""); err != nil {
				return e.fail(ctx, execution, ag, err.Error())
			}
		} else if !decision.Allowed {
			reason := decision.Reason
			observation := trace.Observation{Status: "blocked", Error: reason}
			if err := interp.Transition(agent.StageDone, reason); err != nil {
				return e.fail(ctx, execution, ag, err.Error())
			}
			if err := e.persistTrace(ctx, execution, ag.ID, step, resp, observation); err != nil {
				return e.fail(ctx, execution, ag, err.Error())
			}
			execution.Iterations = step
			execution.ActionsTaken = actionsTaken
			execution.Block(reason)
			if err := e.runs.Update(ctx, execution); err != nil {
				return nil, err
			}
			return &run.Result{Status: run.ResultBlocked, Iterations: step, ActionsTaken: actionsTaken, Reason: reason}, nil
		} else {
			if err := interp.Transition(agent.StageAct, ""); err != nil {
				return e.fail(ctx, execution, ag, err.Error())
			}
		}

		observation := e.act(ctx, execution.ID, resp.Action)
		if observation.Status == "success" {
			actionsTaken++
		}

		if err := interp.Transition(agent.StageObserve, ""); err != nil {
			return e.fail(ctx, execution, ag, err.Error())
		}
		if err := interp.Transition(agent.StagePersist, ""); err != nil {
			return e.fail(ctx, execution, ag, err.Error())
		}
		if err := e.persistTrace(ctx, execution, ag.ID, step, resp, observation); err != nil {
			return e.fail(ctx, execution, ag, err.Error())
		}

		if err := interp.Transition(agent.StageUpdate, ""); err != nil {
			return e.fail(ctx, execution, ag, err.Error())
		}
		actionJSON, _ := json.Marshal(resp.Action)
		observationJSON, _ := json.Marshal(observation)
		e.context.UpdateContext(rc, resp.Action.Type, actionJSON, observationJSON, observation.Status, observation.Result)

		if ag.EnableMemory {
			summary := resp.Reasoning
			if summary == "" {
				summary = resp.Action.Description
			}
			if _, err := e.context.StoreMemory(ctx, ag.ID, execution.ID, memory.KindEpisodic, summary, observationJSON); err != nil {
				logging.Debug().Add(logging.RunID(execution.ID)).Add(logging.ErrorField(err)).Msg("episodic memory write failed")
			}
		}

		prevActions = append(prevActions, resp.Action)
		prevObservations = append(prevObservations, observation)

		execution.Iterations = step + 1
		execution.ActionsTaken = actionsTaken
		if err := e.runs.Update(ctx, execution); err != nil {
			return nil, err
		}
	}

	reason := fmt.Sprintf("Maximum iterations (%d) exceeded", iterationCap)
	execution.Iterations = iterationCap
	execution.ActionsTaken = actionsTaken
	execution.Timeout(reason)
	if err := e.runs.Update(ctx, execution); err != nil {
		return nil, err
	}
	return &run.Result{Status: run.ResultTimeout, Iterations: iterationCap, ActionsTaken: actionsTaken, Reason: reason}, nil
}

// act resolves and executes the action's tool through the resilient
// executor. An unknown tool name yields a structured error observation
// rather than aborting the run: the loop continues and the reasoning
// engine sees the failure on its next turn.
func (e *Executor) act(ctx context.Context, runID string, action trace.Action) trace.Observation {
	t, ok := e.tools.Get(action.Type)
	if !ok {
		errPayload, _ := json.Marshal(map[string]any{
			"error":          fmt.Sprintf("Tool '%s' not found", action.Type),
			"available_tools": e.tools.Names(),
		})
		return trace.Observation{Status: "error", Error: fmt.Sprintf("Tool '%s' not found", action.Type), Result: errPayload}
	}

	dispatch := func(ctx context.Context, execCtx *domainmiddleware.ExecutionContext) (tool.Result, error) {
		return e.resilent.Execute(ctx, execCtx.Tool, execCtx.Input)
	}
	if e.toolChain != nil {
		dispatch = e.toolChain(dispatch)
	}

	result, err := dispatch(ctx, &domainmiddleware.ExecutionContext{
		RunID:  runID,
		Stage:  agent.StageAct,
		Tool:   t,
		Input:  action.Parameters,
		Reason: action.Description,
	})
	if err != nil {
		return trace.Observation{Status: "error", Error: err.Error()}
	}
	if result.IsError() {
		return trace.Observation{Status: "error", Error: result.Error.Error()}
	}
	return trace.Observation{Status: "success", Result: result.Output}
}

// requestApproval creates a HITL request for the action and blocks on
// the Coordinator until it resolves.
func (e *Executor) requestApproval(ctx context.Context, execution *run.Execution, ag *agent.Agent, action trace.Action, decision safety.Decision) (hitl.Status, error) {
	req := hitl.New(newID("hitl"), execution.ID, ag.ID, action.Type, action.Description, action.Parameters, string(decision.RiskLevel), decision.Reason, e.approvalTimeout)
	logging.Info().Add(logging.RunID(execution.ID)).Add(logging.HITLRequestID(req.ID)).Add(logging.ActionType(action.Type)).Add(logging.RiskLevel(req.RiskLevel)).Msg("awaiting human approval")
	return e.hitl.RequestApproval(ctx, req, e.approvalTimeout)
}

// persistTrace appends one ReAct step to the trace store.
func (e *Executor) persistTrace(ctx context.Context, execution *run.Execution, agentID string, step int, resp reasoning.Response, observation trace.Observation) error {
	t := trace.New(newID("trace"), execution.ID, agentID, step, resp.Reasoning, resp.Action, observation, resp.Reflection, resp.TokensUsed, int(resp.LatencyMS))
	logging.Info().
		Add(logging.RunID(execution.ID)).
		Add(logging.TraceStepIndex(step)).
		Add(logging.ActionType(resp.Action.Type)).
		Add(logging.Str("observation_status", observation.Status)).
		Msg("reasoning step persisted")
	return e.traces.Append(ctx, t)
}

// fail writes a terminal error trace and marks execution failed. It is
// the uncaught-exception path: anything that isn't a domain-modeled
// blocked/timeout/cancel outcome ends here.
func (e *Executor) fail(ctx context.Context, execution *run.Execution, ag *agent.Agent, reason string) (*run.Result, error) {
	step, _ := e.traces.Count(ctx, execution.ID)
	errTrace := trace.New(newID("trace"), execution.ID, execution.AgentID, step, "Error occurred during execution",
		trace.Action{Type: "error"}, trace.Observation{Status: "error", Error: reason}, "", 0, 0)
	_ = e.traces.Append(ctx, errTrace)

	execution.Fail(reason)
	_ = e.runs.Update(ctx, execution)
	e.emitFeedback(ctx, execution, ag, feedback.OutcomeFailure, []byte(`{"reason":"`+reason+`"}`))

	logging.Error().Add(logging.RunID(execution.ID)).Add(logging.Reason(reason)).Msg("execution failed")
	return &run.Result{Status: run.ResultError, Iterations: execution.Iterations, ActionsTaken: execution.ActionsTaken, Error: reason}, nil
}

// cancel marks execution cancelled when ctx is done between iterations.
// Cancellation is not a terminal outcome reported through execute_task's
// ResultStatus enum, so the returned Result mirrors the error path
// without emitting learning feedback (the run was interrupted externally,
// not a policy/model outcome).
func (e *Executor) cancel(ctx context.Context, execution *run.Execution) (*run.Result, error) {
	execution.Cancel()
	if err := e.runs.Update(context.Background(), execution); err != nil {
		return nil, err
	}
	logging.Info().Add(logging.RunID(execution.ID)).Msg("execution cancelled")
	return &run.Result{Status: run.ResultError, Iterations: execution.Iterations, ActionsTaken: execution.ActionsTaken, Error: "execution cancelled"}, ctx.Err()
}

// emitFeedback appends a learning feedback record when ag has learning
// enabled. Callers only reach this helper from the completed and error
// terminal paths, which exclude each other, so feedback fires at most once
// per run; blocked and
// timeout outcomes don't call it.
func (e *Executor) emitFeedback(ctx context.Context, execution *run.Execution, ag *agent.Agent, outcome feedback.Outcome, details json.RawMessage) {
	if e.feedback == nil || ag == nil || !ag.EnableLearning {
		return
	}
	f := feedback.New(newID("feedback"), execution.ID, ag.ID, outcome, details)
	if err := e.feedback.Append(ctx, f); err != nil {
		logging.Debug().Add(logging.RunID(execution.ID)).Add(logging.ErrorField(err)).Msg("feedback append failed")
	}
}

// finishResult extracts the synthetic result payload for a "finish"
// action: the action's own Result field if the reasoning engine populated
// one, otherwise the spec's canonical completion message.
func finishResult(action trace.Action) json.RawMessage {
	if len(action.Result) > 0 {
		return action.Result
	}
	msg, _ := json.Marshal(map[string]string{"message": "Task completed"})
	return msg
}

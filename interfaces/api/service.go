// Package api is the request boundary spec.md §6 describes: a single
// RPC-style entry point that accepts (agent_id, task, execution_id?,
// max_iterations?) and returns an ExecutionResult, plus the auxiliary
// read-only queries a caller uses to inspect a run after the fact. It is
// deliberately not a REST handler: the transport, authentication, and
// CRUD surface around agents/projects/workflows are external
// collaborators the core only consumes (spec.md §1).
package api

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/agent-go/application"
	"github.com/felixgeelhaar/agent-go/domain/agent"
	"github.com/felixgeelhaar/agent-go/domain/feedback"
	"github.com/felixgeelhaar/agent-go/domain/hitl"
	"github.com/felixgeelhaar/agent-go/domain/memory"
	"github.com/felixgeelhaar/agent-go/domain/run"
	"github.com/felixgeelhaar/agent-go/domain/trace"
)

// Service is the public entry point for driving and inspecting agent
// task executions. It owns no state of its own beyond its collaborators.
type Service struct {
	agents   agent.Store
	runs     run.Store
	traces   trace.Store
	memories memory.Store
	feedback feedback.Store
	hitl     hitl.Store
	approver *hitl.Coordinator

	executor *application.Executor
}

// NewService builds a Service from its collaborators. executor is the
// Agent Executor built by application.NewExecutorFromConfig (or
// application.NewExecutor directly); the HITL coordinator it suspends on
// is pulled from executor.Coordinator() so that HITLRespond wakes a
// blocked execute_task call rather than only updating the store.
func NewService(
	agents agent.Store,
	runs run.Store,
	traces trace.Store,
	memories memory.Store,
	feedbackStore feedback.Store,
	hitlStore hitl.Store,
	executor *application.Executor,
) *Service {
	return &Service{
		agents:   agents,
		runs:     runs,
		traces:   traces,
		memories: memories,
		feedback: feedbackStore,
		hitl:     hitlStore,
		approver: executor.Coordinator(),
		executor: executor,
	}
}

// ErrAgentIDRequired is a ValidationError (spec.md §7): surfaced to the
// caller directly, never stored on a run.
var ErrAgentIDRequired = errors.New("agent_id is required")

// ExecuteTask is the request boundary's single RPC-style entry point: it
// loads (or resumes) the named execution and drives it to a terminal
// state through the Agent Executor. A nil executionID mints a new
// execution for agentID/task; a non-nil one resumes an existing pending
// or running execution. maxIterations overrides the agent's configured
// cap for this call only.
func (s *Service) ExecuteTask(ctx context.Context, agentID string, task run.Task, executionID *string, maxIterations *int) (*run.Result, error) {
	if agentID == "" {
		return nil, ErrAgentIDRequired
	}

	ag, err := s.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	var execution *run.Execution
	if executionID == nil {
		execution = application.NewExecution(agentID, task)
		if err := s.runs.Save(ctx, execution); err != nil {
			return nil, err
		}
	} else {
		execution, err = s.runs.Get(ctx, *executionID)
		if err != nil {
			return nil, err
		}
	}

	return s.executor.Execute(ctx, ag, execution, maxIterations)
}

// ReasoningTracesFor is the reasoning_traces_for(agent_id, run_id?,
// limit) auxiliary query. A non-empty runID returns that run's traces in
// step_index order, the last limit of them when limit > 0 (agentID is not
// otherwise consulted, since a trace already carries its agent_id); an
// empty runID walks agentID's runs newest first by start time, appending
// each run's traces in step_index order until limit traces are collected.
func (s *Service) ReasoningTracesFor(ctx context.Context, agentID, runID string, limit int) ([]*trace.Trace, error) {
	if runID != "" {
		traces, err := s.traces.ListForRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(traces) > limit {
			traces = traces[len(traces)-limit:]
		}
		return traces, nil
	}

	runs, err := s.runs.List(ctx, run.ListFilter{AgentID: agentID, OrderBy: run.OrderByStartTime, Descending: true})
	if err != nil {
		return nil, err
	}
	var all []*trace.Trace
	for _, r := range runs {
		ts, err := s.traces.ListForRun(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, ts...)
		if limit > 0 && len(all) >= limit {
			break
		}
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// MemoryFor is the memory_for(agent_id, type?, limit) auxiliary query.
// An empty kind returns every kind, most recent first.
func (s *Service) MemoryFor(ctx context.Context, agentID string, kind memory.Kind, limit int) ([]*memory.Item, error) {
	items, err := s.memories.ListForAgent(ctx, agentID, 0)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		return items, nil
	}
	filtered := make([]*memory.Item, 0, len(items))
	for _, item := range items {
		if item.Kind == kind {
			filtered = append(filtered, item)
		}
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return filtered, nil
}

// HITLPending is the hitl_pending(limit, risk_level?) auxiliary query.
func (s *Service) HITLPending(ctx context.Context, limit int, riskLevel string) ([]*hitl.Request, error) {
	pending, err := s.hitl.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if riskLevel != "" {
		filtered := make([]*hitl.Request, 0, len(pending))
		for _, r := range pending {
			if r.RiskLevel == riskLevel {
				filtered = append(filtered, r)
			}
		}
		pending = filtered
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// HITLRespond is the hitl_respond(request_id, decision, feedback?)
// auxiliary query. It takes no feedback text: only the decision and
// respondedBy are passed on and recorded. Routing
// through the Coordinator (rather than updating the store directly) wakes
// an execute_task call that is blocked awaiting this exact request.
func (s *Service) HITLRespond(ctx context.Context, requestID string, decision hitl.Decision, respondedBy string) error {
	return s.approver.Respond(ctx, requestID, decision, respondedBy)
}

// HITLStats is the hitl_stats() auxiliary query.
func (s *Service) HITLStats(ctx context.Context) (hitl.Stats, error) {
	return s.hitl.Stats(ctx)
}

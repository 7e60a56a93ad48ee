package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/agent"
	"github.com/felixgeelhaar/agent-go/domain/hitl"
	"github.com/felixgeelhaar/agent-go/domain/run"
	"github.com/felixgeelhaar/agent-go/domain/tool"
	"github.com/felixgeelhaar/agent-go/domain/trace"
	"github.com/felixgeelhaar/agent-go/infrastructure/reasoning"
	"github.com/felixgeelhaar/agent-go/infrastructure/resilience"
	memstore "github.com/felixgeelhaar/agent-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/agent-go/infrastructure/vectorstore"
)

// scriptedProvider returns each response in order, then repeats the last
// one, letting a test script a fixed ReAct sequence.
type scriptedProvider struct {
	steps []reasoning.Response
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req reasoning.CompletionRequest) (reasoning.CompletionResponse, error) {
	idx := p.calls
	if idx >= len(p.steps) {
		idx = len(p.steps) - 1
	}
	p.calls++
	step := p.steps[idx]

	content := "Thought: " + step.Reasoning + "\nAction: " + step.Action.Type
	if step.Action.Type == "finish" {
		content += "\nResult: " + string(step.Action.Result)
	} else {
		content += "\nAction Input: " + string(step.Action.Parameters)
	}

	return reasoning.CompletionResponse{
		Message: reasoning.Message{Role: "assistant", Content: content},
		Usage:   reasoning.Usage{TotalTokens: step.TokensUsed},
	}, nil
}

func newTestExecutor(t *testing.T, providerSteps []reasoning.Response, hitlNotifier hitl.Notifier, approvalTimeout time.Duration) (*Executor, *memstore.RunStore, *memstore.TraceStore, *memstore.ToolRegistry) {
	t.Helper()

	runs := memstore.NewRunStore()
	traces := memstore.NewTraceStore()
	feedbackStore := memstore.NewFeedbackStore()
	hitlStore := memstore.NewHITLStore()
	toolRegistry := memstore.NewToolRegistry()
	memItems := memstore.NewMemoryItemStore()
	vectors := vectorstore.NewMemoryStore(vectorstore.NewHashEmbedder(8))

	reasoner := reasoning.NewEngine(
		reasoning.WithProvider("scripted", &scriptedProvider{steps: providerSteps}),
		reasoning.WithDefaultProvider("scripted"),
	)

	coordinator := hitl.NewCoordinator(hitlStore, hitlNotifier)
	contextManager := NewContextManager(memItems, vectors, 0)
	resilient := resilience.NewDefaultExecutor()

	exec := NewExecutor(runs, traces, feedbackStore, coordinator, toolRegistry, reasoner, resilient, contextManager, approvalTimeout)
	return exec, runs, traces, toolRegistry
}

func testAgent() *agent.Agent {
	return &agent.Agent{
		ID:            "agent-1",
		Name:          "tester",
		Model:         "test-model",
		Provider:      "scripted",
		MaxIterations: 3,
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// Scenario 1: immediate finish.
func TestExecutor_ImmediateFinish(t *testing.T) {
	finishResult := mustJSON(t, map[string]string{"message": "Task completed"})
	steps := []reasoning.Response{
		{Reasoning: "done already", Action: trace.Action{Type: "finish", Result: finishResult}},
	}
	exec, _, traces, _ := newTestExecutor(t, steps, nil, time.Second)
	ag := testAgent()
	execution := NewExecution(ag.ID, run.Task{Description: "say hi"})

	result, err := exec.Execute(context.Background(), ag, execution, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if result.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", result.Iterations)
	}
	if execution.Status != run.StatusCompleted {
		t.Fatalf("execution status = %s, want completed", execution.Status)
	}
	count, _ := traces.Count(context.Background(), execution.ID)
	if count != 1 {
		t.Fatalf("trace count = %d, want 1", count)
	}
}

// Scenario 2: tool-assisted finish.
func TestExecutor_ToolAssistedFinish(t *testing.T) {
	calcResult := mustJSON(t, map[string]any{"value": 4})
	finishResult := mustJSON(t, map[string]string{"message": "Task completed"})
	steps := []reasoning.Response{
		{Reasoning: "need to calculate", Action: trace.Action{Type: "calculate", Parameters: mustJSON(t, map[string]string{"expression": "2+2"})}},
		{Reasoning: "done", Action: trace.Action{Type: "finish", Result: finishResult}},
	}
	exec, _, traces, tools := newTestExecutor(t, steps, nil, time.Second)

	calcTool := tool.NewBuilder("calculate").
		WithDescription("evaluate an arithmetic expression").
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			return tool.NewResult(calcResult), nil
		}).
		MustBuild()
	if err := tools.Register(calcTool); err != nil {
		t.Fatalf("register: %v", err)
	}

	ag := testAgent()
	execution := NewExecution(ag.ID, run.Task{Description: "compute 2+2"})

	result, err := exec.Execute(context.Background(), ag, execution, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if result.Iterations != 1 {
		t.Fatalf("iterations = %d, want 1", result.Iterations)
	}
	if result.ActionsTaken != 1 {
		t.Fatalf("actions_taken = %d, want 1", result.ActionsTaken)
	}
	count, _ := traces.Count(context.Background(), execution.ID)
	if count != 2 {
		t.Fatalf("trace count = %d, want 2", count)
	}
}

// Scenario 3: guardrail block without approval path.
func TestExecutor_GuardrailBlock(t *testing.T) {
	steps := []reasoning.Response{
		{Reasoning: "deleting data", Action: trace.Action{Type: "data_wipe", Parameters: mustJSON(t, map[string]string{})}},
	}
	exec, _, _, _ := newTestExecutor(t, steps, nil, time.Second)

	ag := testAgent()
	ag.SafetyGuardrails = mustJSON(t, map[string]any{"blocked_actions": []string{"data_wipe"}})
	execution := NewExecution(ag.ID, run.Task{Description: "wipe everything"})

	result, err := exec.Execute(context.Background(), ag, execution, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultBlocked {
		t.Fatalf("status = %s, want blocked", result.Status)
	}
	if execution.Status != run.StatusBlocked {
		t.Fatalf("execution status = %s, want blocked", execution.Status)
	}
}

// autoApproveNotifier resolves every request it sees as approved, from a
// goroutine, simulating an operator responding promptly.
type autoApproveNotifier struct {
	coordinator *hitl.Coordinator
	decision    hitl.Decision
	delay       time.Duration
}

func (n *autoApproveNotifier) Notify(ctx context.Context, r *hitl.Request) error {
	go func() {
		time.Sleep(n.delay)
		_ = n.coordinator.Respond(context.Background(), r.ID, n.decision, "operator")
	}()
	return nil
}

// Scenario 4: HITL approval granted.
func TestExecutor_HITLApproved(t *testing.T) {
	finishResult := mustJSON(t, map[string]string{"message": "Task completed"})
	steps := []reasoning.Response{
		{Reasoning: "need to message the user", Action: trace.Action{Type: "user_communication", Parameters: mustJSON(t, map[string]string{"message": "hello"})}},
		{Reasoning: "done", Action: trace.Action{Type: "finish", Result: finishResult}},
	}

	runs := memstore.NewRunStore()
	traces := memstore.NewTraceStore()
	feedbackStore := memstore.NewFeedbackStore()
	hitlStore := memstore.NewHITLStore()
	toolRegistry := memstore.NewToolRegistry()
	memItems := memstore.NewMemoryItemStore()
	vectors := vectorstore.NewMemoryStore(vectorstore.NewHashEmbedder(8))
	reasoner := reasoning.NewEngine(reasoning.WithProvider("scripted", &scriptedProvider{steps: steps}), reasoning.WithDefaultProvider("scripted"))
	notifier := &autoApproveNotifier{decision: hitl.DecisionApproved, delay: 10 * time.Millisecond}
	coordinator := hitl.NewCoordinator(hitlStore, notifier)
	notifier.coordinator = coordinator

	msgTool := tool.NewBuilder("user_communication").WithDescription("message the user").WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
		return tool.NewResult(mustJSON(t, map[string]string{"sent": "ok"})), nil
	}).MustBuild()
	if err := toolRegistry.Register(msgTool); err != nil {
		t.Fatalf("register: %v", err)
	}

	contextManager := NewContextManager(memItems, vectors, 0)
	resilient := resilience.NewDefaultExecutor()
	exec := NewExecutor(runs, traces, feedbackStore, coordinator, toolRegistry, reasoner, resilient, contextManager, 2*time.Second)

	ag := testAgent()
	execution := NewExecution(ag.ID, run.Task{Description: "notify the user"})

	result, err := exec.Execute(context.Background(), ag, execution, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
}

// Scenario 5: HITL timeout.
func TestExecutor_HITLTimeout(t *testing.T) {
	steps := []reasoning.Response{
		{Reasoning: "need to message the user", Action: trace.Action{Type: "user_communication", Parameters: mustJSON(t, map[string]string{"message": "hello"})}},
	}
	exec, _, _, tools := newTestExecutor(t, steps, hitl.NoopNotifier{}, 20*time.Millisecond)

	msgTool := tool.NewBuilder("user_communication").WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
		return tool.NewResult(nil), nil
	}).MustBuild()
	if err := tools.Register(msgTool); err != nil {
		t.Fatalf("register: %v", err)
	}

	ag := testAgent()
	execution := NewExecution(ag.ID, run.Task{Description: "notify the user"})

	result, err := exec.Execute(context.Background(), ag, execution, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultBlocked {
		t.Fatalf("status = %s, want blocked", result.Status)
	}
	if execution.Status != run.StatusBlocked {
		t.Fatalf("execution status = %s, want blocked", execution.Status)
	}
}

// Scenario 6: budget exhaustion (max_iterations reached without finishing).
func TestExecutor_MaxIterationsExceeded(t *testing.T) {
	steps := []reasoning.Response{
		{Reasoning: "still working", Action: trace.Action{Type: "noop"}},
	}
	exec, _, traces, tools := newTestExecutor(t, steps, nil, time.Second)
	noop := tool.NewBuilder("noop").WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
		return tool.NewResult(mustJSON(t, map[string]string{"ok": "true"})), nil
	}).MustBuild()
	if err := tools.Register(noop); err != nil {
		t.Fatalf("register: %v", err)
	}

	ag := testAgent()
	ag.MaxIterations = 3
	execution := NewExecution(ag.ID, run.Task{Description: "keep trying"})

	result, err := exec.Execute(context.Background(), ag, execution, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultTimeout {
		t.Fatalf("status = %s, want timeout", result.Status)
	}
	if result.Iterations != 3 {
		t.Fatalf("iterations = %d, want 3", result.Iterations)
	}
	count, _ := traces.Count(context.Background(), execution.ID)
	if count != 3 {
		t.Fatalf("trace count = %d, want 3", count)
	}
}

// Boundary: an explicit max_iterations override of 0 yields no Traces, a
// timeout result, and iterations = 0.
func TestExecutor_ZeroMaxIterations(t *testing.T) {
	exec, _, traces, _ := newTestExecutor(t, nil, nil, time.Second)
	ag := testAgent()
	execution := NewExecution(ag.ID, run.Task{Description: "never runs"})

	zero := 0
	result, err := exec.Execute(context.Background(), ag, execution, &zero)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultTimeout {
		t.Fatalf("status = %s, want timeout", result.Status)
	}
	if result.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", result.Iterations)
	}
	count, _ := traces.Count(context.Background(), execution.ID)
	if count != 0 {
		t.Fatalf("trace count = %d, want 0", count)
	}
}

// Unknown tool yields a soft error observation and the loop continues.
func TestExecutor_UnknownToolContinues(t *testing.T) {
	finishResult := mustJSON(t, map[string]string{"message": "Task completed"})
	steps := []reasoning.Response{
		{Reasoning: "try a tool that doesn't exist", Action: trace.Action{Type: "nonexistent_tool"}},
		{Reasoning: "give up and finish", Action: trace.Action{Type: "finish", Result: finishResult}},
	}
	exec, _, traces, _ := newTestExecutor(t, steps, nil, time.Second)
	ag := testAgent()
	execution := NewExecution(ag.ID, run.Task{Description: "try something"})

	result, err := exec.Execute(context.Background(), ag, execution, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Status != run.ResultCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	all, err := traces.ListForRun(context.Background(), execution.ID)
	if err != nil {
		t.Fatalf("ListForRun: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("trace count = %d, want 2", len(all))
	}
	if all[0].Observation.Status != "error" {
		t.Fatalf("first observation status = %s, want error", all[0].Observation.Status)
	}
}

// Concurrent Execute calls for the same execution id fail fast.
func TestExecutor_ConcurrentExecuteRejected(t *testing.T) {
	steps := []reasoning.Response{
		{Reasoning: "finish", Action: trace.Action{Type: "finish", Result: mustJSON(t, map[string]string{"message": "Task completed"})}},
	}
	exec, _, _, _ := newTestExecutor(t, steps, nil, time.Second)
	ag := testAgent()
	execution := NewExecution(ag.ID, run.Task{Description: "race"})
	if err := execution.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	exec.inFlight.Store(execution.ID, struct{}{})
	defer exec.inFlight.Delete(execution.ID)

	one := 1
	_, err := exec.Execute(context.Background(), ag, execution, &one)
	if err != run.ErrAlreadyRunning {
		t.Fatalf("err = %v, want ErrAlreadyRunning", err)
	}
}

// Learning feedback is only recorded for agents that opt in, and only on
// the completed/error terminal paths -- not for blocked actions.
func TestExecutor_EmitFeedback_GatedOnEnableLearning(t *testing.T) {
	finishResult := mustJSON(t, map[string]string{"message": "Task completed"})
	steps := []reasoning.Response{
		{Reasoning: "done", Action: trace.Action{Type: "finish", Result: finishResult}},
	}

	runs := memstore.NewRunStore()
	traces := memstore.NewTraceStore()
	feedbackStore := memstore.NewFeedbackStore()
	hitlStore := memstore.NewHITLStore()
	toolRegistry := memstore.NewToolRegistry()
	memItems := memstore.NewMemoryItemStore()
	vectors := vectorstore.NewMemoryStore(vectorstore.NewHashEmbedder(8))
	reasoner := reasoning.NewEngine(
		reasoning.WithProvider("scripted", &scriptedProvider{steps: steps}),
		reasoning.WithDefaultProvider("scripted"),
	)
	coordinator := hitl.NewCoordinator(hitlStore, nil)
	contextManager := NewContextManager(memItems, vectors, 0)
	resilient := resilience.NewDefaultExecutor()
	exec := NewExecutor(runs, traces, feedbackStore, coordinator, toolRegistry, reasoner, resilient, contextManager, time.Second)

	t.Run("learning disabled records nothing", func(t *testing.T) {
		ag := testAgent()
		execution := NewExecution(ag.ID, run.Task{Description: "say hi"})
		if _, err := exec.Execute(context.Background(), ag, execution, nil); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if feedbackStore.Len() != 0 {
			t.Fatalf("feedback count = %d, want 0 with EnableLearning false", feedbackStore.Len())
		}
	})

	t.Run("learning enabled records on completion", func(t *testing.T) {
		ag := testAgent()
		ag.EnableLearning = true
		execution := NewExecution(ag.ID, run.Task{Description: "say hi"})
		if _, err := exec.Execute(context.Background(), ag, execution, nil); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if feedbackStore.Len() != 1 {
			t.Fatalf("feedback count = %d, want 1 with EnableLearning true", feedbackStore.Len())
		}
	})
}

// Package reasoning implements the Reasoning Engine: it turns an agent's
// configuration, task, and accumulated ReAct history into the next
// thought/action pair by calling a configured LLM provider, falling back
// to a deterministic mock when no provider is configured or the call
// fails.
package reasoning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/agent"
	"github.com/felixgeelhaar/agent-go/domain/trace"
)

// Request carries everything the engine needs to produce the next
// reasoning step.
type Request struct {
	Agent                *agent.Agent
	TaskDescription       string
	Context               map[string]any
	PreviousActions       []trace.Action
	PreviousObservations  []trace.Observation
}

// Response is a single reasoning step's output.
type Response struct {
	Reasoning  string
	Action     trace.Action
	Reflection string
	TokensUsed int
	LatencyMS  int64
}

// Engine dispatches reasoning requests to the provider named by the
// agent's Provider field, normalized to lowercase, with a configured
// default provider as fallback.
type Engine struct {
	providers       map[string]Provider
	defaultProvider string
}

// Option configures an Engine.
type Option func(*Engine)

// WithProvider registers a named provider (e.g. "openai", "anthropic").
func WithProvider(name string, p Provider) Option {
	return func(e *Engine) {
		e.providers[strings.ToLower(name)] = p
	}
}

// WithDefaultProvider sets the provider used when an agent specifies
// none. An agent that names a provider that isn't registered gets the
// mock response; the default provider is not tried in that case.
func WithDefaultProvider(name string) Option {
	return func(e *Engine) {
		e.defaultProvider = strings.ToLower(name)
	}
}

// NewEngine creates a Reasoning Engine from the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{providers: make(map[string]Provider)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reason produces the next reasoning step. On any provider error, or
// when no provider can be resolved, it falls back to the deterministic
// mock response rather than failing the run.
func (e *Engine) Reason(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	providerName := strings.ToLower(req.Agent.Provider)
	if providerName == "" {
		providerName = e.defaultProvider
	}

	provider, ok := e.providers[providerName]
	if !ok {
		resp := mockResponse()
		resp.LatencyMS = time.Since(start).Milliseconds()
		return resp, nil
	}

	prompt := buildReActPrompt(req)

	completion, err := provider.Complete(ctx, CompletionRequest{
		Model:       req.Agent.Model,
		Temperature: req.Agent.EffectiveTemperature(),
		MaxTokens:   req.Agent.EffectiveMaxTokens(),
		Messages: []Message{
			{Role: "system", Content: "You are an AI agent using the ReAct pattern (Reasoning + Acting). Think step by step."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		resp := mockResponse()
		resp.LatencyMS = time.Since(start).Milliseconds()
		return resp, nil
	}
	if completion.Error != nil {
		resp := mockResponse()
		resp.LatencyMS = time.Since(start).Milliseconds()
		return resp, nil
	}

	parsed := parseReActResponse(completion.Message.Content)
	parsed.TokensUsed = completion.Usage.TotalTokens
	parsed.LatencyMS = time.Since(start).Milliseconds()

	return parsed, nil
}

func buildReActPrompt(req Request) string {
	var history strings.Builder
	for i := range req.PreviousActions {
		action := req.PreviousActions[i]
		var obs trace.Observation
		if i < len(req.PreviousObservations) {
			obs = req.PreviousObservations[i]
		}
		fmt.Fprintf(&history, "\nStep %d:\n", i+1)
		fmt.Fprintf(&history, "Action: %s - %s\n", action.Type, action.Description)
		fmt.Fprintf(&history, "Observation: %s - %s\n", obs.Status, string(obs.Result))
	}

	var tools strings.Builder
	for _, t := range req.Agent.Tools {
		fmt.Fprintf(&tools, "- %s\n", t)
	}

	return fmt.Sprintf(`%s

Task: %s

Available Tools:
%s

Previous Steps:%s

Current Context:
%v

Based on the task, previous steps, and current context, determine the next action.
Use the following format:

Thought: [Your reasoning about what to do next]
Action: [The action to take]
Action Input: [The input for the action]

If the task is complete, use:
Thought: [Explain why the task is complete]
Action: finish
Result: [The final result]
`, req.Agent.EffectiveSystemPrompt(), req.TaskDescription, tools.String(), history.String(), req.Context)
}

package reasoning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

type stubProvider struct {
	name     string
	response CompletionResponse
	err      error
	lastReq  CompletionRequest
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return CompletionResponse{}, s.err
	}
	return s.response, nil
}

func TestEngine_Reason(t *testing.T) {
	t.Parallel()

	baseAgent := &agent.Agent{
		ID:       "agent-1",
		Provider: "Stub",
		Model:    "stub-model",
		Tools:    []string{"calculate"},
	}

	t.Run("dispatches to the agent's provider, normalized to lowercase", func(t *testing.T) {
		t.Parallel()

		stub := &stubProvider{name: "stub", response: CompletionResponse{
			Message: Message{Role: "assistant", Content: "Thought: ok\nAction: finish\nResult: done"},
			Usage:   Usage{TotalTokens: 42},
		}}
		engine := NewEngine(WithProvider("stub", stub))

		resp, err := engine.Reason(context.Background(), Request{Agent: baseAgent, TaskDescription: "do a thing"})
		if err != nil {
			t.Fatalf("Reason() error = %v", err)
		}
		if resp.Action.Type != "finish" {
			t.Errorf("Action.Type = %q, want finish", resp.Action.Type)
		}
		if resp.TokensUsed != 42 {
			t.Errorf("TokensUsed = %d, want 42", resp.TokensUsed)
		}
		if !strings.Contains(stub.lastReq.Messages[1].Content, "do a thing") {
			t.Errorf("prompt missing task description: %q", stub.lastReq.Messages[1].Content)
		}
	})

	t.Run("falls back to the default provider when the agent specifies none", func(t *testing.T) {
		t.Parallel()

		stub := &stubProvider{name: "default", response: CompletionResponse{
			Message: Message{Role: "assistant", Content: "Thought: ok\nAction: finish\nResult: done"},
		}}
		engine := NewEngine(WithProvider("default", stub), WithDefaultProvider("default"))

		a := &agent.Agent{ID: "agent-2"}
		_, err := engine.Reason(context.Background(), Request{Agent: a, TaskDescription: "x"})
		if err != nil {
			t.Fatalf("Reason() error = %v", err)
		}
		if stub.lastReq.Model != "" {
			t.Errorf("Model = %q, want empty (agent has none)", stub.lastReq.Model)
		}
	})

	t.Run("falls back to the mock response when no provider resolves", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine()

		resp, err := engine.Reason(context.Background(), Request{Agent: baseAgent, TaskDescription: "x"})
		if err != nil {
			t.Fatalf("Reason() error = %v", err)
		}
		if resp.Action.Type != "finish" {
			t.Errorf("Action.Type = %q, want finish", resp.Action.Type)
		}
		if resp.TokensUsed != 150 {
			t.Errorf("TokensUsed = %d, want 150 (mock)", resp.TokensUsed)
		}
	})

	t.Run("falls back to the mock response when the provider call errors", func(t *testing.T) {
		t.Parallel()

		stub := &stubProvider{name: "stub", err: errors.New("connection refused")}
		engine := NewEngine(WithProvider("stub", stub))

		resp, err := engine.Reason(context.Background(), Request{Agent: baseAgent, TaskDescription: "x"})
		if err != nil {
			t.Fatalf("Reason() error = %v, want no error (mock fallback)", err)
		}
		if resp.Action.Type != "finish" {
			t.Errorf("Action.Type = %q, want finish", resp.Action.Type)
		}
		if resp.Reasoning != "Analyzing the task and determining next steps..." {
			t.Errorf("Reasoning = %q, want the mock reasoning text", resp.Reasoning)
		}
	})

	t.Run("falls back to the mock response when the completion carries an error", func(t *testing.T) {
		t.Parallel()

		stub := &stubProvider{name: "stub", response: CompletionResponse{
			Error: &APIError{Type: "rate_limit_error", Message: "slow down"},
		}}
		engine := NewEngine(WithProvider("stub", stub))

		resp, err := engine.Reason(context.Background(), Request{Agent: baseAgent, TaskDescription: "x"})
		if err != nil {
			t.Fatalf("Reason() error = %v", err)
		}
		if resp.TokensUsed != 150 {
			t.Errorf("TokensUsed = %d, want 150 (mock)", resp.TokensUsed)
		}
	})

	t.Run("passes the effective temperature and max tokens to the provider", func(t *testing.T) {
		t.Parallel()

		stub := &stubProvider{name: "stub", response: CompletionResponse{
			Message: Message{Role: "assistant", Content: "Action: finish"},
		}}
		engine := NewEngine(WithProvider("stub", stub))

		a := &agent.Agent{ID: "agent-3", Provider: "stub", Temperature: 3, MaxTokens: 500}
		_, err := engine.Reason(context.Background(), Request{Agent: a, TaskDescription: "x"})
		if err != nil {
			t.Fatalf("Reason() error = %v", err)
		}
		if stub.lastReq.Temperature != 0.3 {
			t.Errorf("Temperature = %v, want 0.3", stub.lastReq.Temperature)
		}
		if stub.lastReq.MaxTokens != 500 {
			t.Errorf("MaxTokens = %d, want 500", stub.lastReq.MaxTokens)
		}
	})
}

func TestBuildReActPrompt(t *testing.T) {
	t.Parallel()

	a := &agent.Agent{SystemPrompt: "Be precise.", Tools: []string{"calculate", "search"}}
	prompt := buildReActPrompt(Request{Agent: a, TaskDescription: "2+2*3"})

	if !strings.Contains(prompt, "Be precise.") {
		t.Error("prompt missing system prompt")
	}
	if !strings.Contains(prompt, "Task: 2+2*3") {
		t.Error("prompt missing task description")
	}
	if !strings.Contains(prompt, "- calculate") || !strings.Contains(prompt, "- search") {
		t.Error("prompt missing tool list")
	}
}

package agent_test

import (
	"testing"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

func TestAgentEffectiveSystemPrompt(t *testing.T) {
	a := &agent.Agent{}
	if got := a.EffectiveSystemPrompt(); got != agent.DefaultSystemPrompt {
		t.Errorf("EffectiveSystemPrompt() = %q, want %q", got, agent.DefaultSystemPrompt)
	}

	a.SystemPrompt = "be concise"
	if got := a.EffectiveSystemPrompt(); got != "be concise" {
		t.Errorf("EffectiveSystemPrompt() = %q, want %q", got, "be concise")
	}
}

func TestAgentEffectiveTemperature(t *testing.T) {
	cases := []struct {
		name  string
		temp  int
		want  float64
	}{
		{"unset defaults to 0.7", 0, 0.7},
		{"mid scale value", 5, 0.5},
		{"max scale value", 10, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &agent.Agent{Temperature: tc.temp}
			if got := a.EffectiveTemperature(); got != tc.want {
				t.Errorf("EffectiveTemperature() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAgentEffectiveMaxTokensAndIterations(t *testing.T) {
	a := &agent.Agent{}
	if got := a.EffectiveMaxTokens(); got != 2000 {
		t.Errorf("EffectiveMaxTokens() = %d, want 2000", got)
	}
	if got := a.EffectiveMaxIterations(); got != 10 {
		t.Errorf("EffectiveMaxIterations() = %d, want 10", got)
	}

	a.MaxTokens = 512
	a.MaxIterations = 3
	if got := a.EffectiveMaxTokens(); got != 512 {
		t.Errorf("EffectiveMaxTokens() = %d, want 512", got)
	}
	if got := a.EffectiveMaxIterations(); got != 3 {
		t.Errorf("EffectiveMaxIterations() = %d, want 3", got)
	}
}

func TestStageIsTerminal(t *testing.T) {
	terminal := []agent.Stage{agent.StageDone, agent.StageFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("Stage(%s).IsTerminal() = false, want true", s)
		}
	}

	nonTerminal := []agent.Stage{
		agent.StageInit, agent.StageReason, agent.StageValidate,
		agent.StageAwaitApproval, agent.StageAct, agent.StageObserve,
		agent.StagePersist, agent.StageUpdate,
	}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("Stage(%s).IsTerminal() = true, want false", s)
		}
	}
}

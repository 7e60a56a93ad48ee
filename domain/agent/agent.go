// Package agent provides the configured-actor entity the executor drives
// and the loop stages it passes through while driving it.
package agent

import "encoding/json"

// Agent is a configured actor: model id, provider, and the policy knobs
// that shape how the executor reasons about and constrains its behavior.
// An Agent is immutable during a run; it is created externally and is
// read-only to the core.
type Agent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Model  string `json:"model"`
	// Provider is normalized to lowercase by the Reasoning Engine before
	// dispatch; callers may store it in any case.
	Provider string `json:"provider"`
	// Temperature is on the source's 0-10 integer scale; the Reasoning
	// Engine maps it to [0.0, 1.0] by dividing by 10.
	Temperature int      `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Tools       []string `json:"tools"`
	SystemPrompt string  `json:"system_prompt"`

	EnableMemory        bool `json:"enable_memory"`
	EnableTools         bool `json:"enable_tools"`
	EnableLearning      bool `json:"enable_learning"`
	EnableCollaboration bool `json:"enable_collaboration"`

	// SafetyGuardrails is an opaque blob interpreted by the Safety Engine.
	// It is nil for agents with no configured guardrails.
	SafetyGuardrails json.RawMessage `json:"safety_guardrails,omitempty"`

	MaxIterations int `json:"max_iterations"`
}

// DefaultSystemPrompt is used when an Agent has no configured system prompt.
const DefaultSystemPrompt = "You are a helpful AI agent."

// EffectiveSystemPrompt returns the agent's system prompt, or the default.
func (a *Agent) EffectiveSystemPrompt() string {
	if a.SystemPrompt == "" {
		return DefaultSystemPrompt
	}
	return a.SystemPrompt
}

// EffectiveMaxTokens returns the agent's configured max tokens, or 2000.
func (a *Agent) EffectiveMaxTokens() int {
	if a.MaxTokens == 0 {
		return 2000
	}
	return a.MaxTokens
}

// EffectiveTemperature maps the agent's 0-10 integer scale to [0.0, 1.0].
// An agent with Temperature == 0 gets the engine default of 0.7, matching
// the source's "agent.temperature or 0.7" fallback (0 is indistinguishable
// from unset on that scale).
func (a *Agent) EffectiveTemperature() float64 {
	if a.Temperature == 0 {
		return 0.7
	}
	return float64(a.Temperature) / 10.0
}

// EffectiveMaxIterations returns the agent's configured iteration cap, or 10.
func (a *Agent) EffectiveMaxIterations() int {
	if a.MaxIterations == 0 {
		return 10
	}
	return a.MaxIterations
}

// Package config provides domain models for loading an Agent definition
// and its runtime settings from a file, as an alternative to constructing
// an agent.Agent directly.
package config

import (
	"encoding/json"

	"github.com/felixgeelhaar/agent-go/domain/agent"
)

// AgentConfig is the file-based description of an agent, mirroring
// agent.Agent's own attributes rather than a separate schema.
type AgentConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the agent's purpose.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Agent contains the settings applied to the constructed agent.Agent.
	Agent AgentSettings `json:"agent" yaml:"agent"`
	// Runtime contains the process-wide settings spec.md's environment
	// variables also populate; file values are the fallback.
	Runtime RuntimeSettings `json:"runtime,omitempty" yaml:"runtime,omitempty"`

	// Variables contains initial shared-knowledge variables.
	Variables map[string]any `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// AgentSettings mirrors the tunable fields of agent.Agent.
type AgentSettings struct {
	// Model is the model identifier passed to the provider.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// Provider selects the reasoning provider (openai, anthropic, ...).
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	// Temperature is on agent.Agent's 0-10 scale.
	Temperature int `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// MaxTokens bounds each completion.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// MaxIterations bounds the control loop's REASON/ACT cycles.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// Tools lists the tool names available to the agent.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	// SystemPrompt overrides the default system prompt.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	// SafetyGuardrails is the Safety Engine's opaque guardrail document,
	// carried through to agent.Agent unparsed.
	SafetyGuardrails json.RawMessage `json:"safety_guardrails,omitempty" yaml:"safety_guardrails,omitempty"`

	// EnableMemory turns on Context Manager retrieval/storage.
	EnableMemory bool `json:"enable_memory,omitempty" yaml:"enable_memory,omitempty"`
	// EnableTools allows the agent to take tool actions.
	EnableTools bool `json:"enable_tools,omitempty" yaml:"enable_tools,omitempty"`
	// EnableLearning gates learning-feedback emission.
	EnableLearning bool `json:"enable_learning,omitempty" yaml:"enable_learning,omitempty"`
	// EnableCollaboration reserves the agent for multi-agent handoff.
	EnableCollaboration bool `json:"enable_collaboration,omitempty" yaml:"enable_collaboration,omitempty"`
}

// RuntimeSettings holds the knobs spec.md §6 sources from environment
// variables, with the file value used only when the variable is unset.
type RuntimeSettings struct {
	// VectorBackend selects the Vector Store backend: "local" (in-memory
	// or, with VectorPath set, badger-backed) or "managed".
	VectorBackend string `json:"vector_backend,omitempty" yaml:"vector_backend,omitempty"`
	// VectorPath, when set, switches the local backend to an on-disk
	// badger database rooted at this directory.
	VectorPath string `json:"vector_path,omitempty" yaml:"vector_path,omitempty"`
	// ApprovalTimeoutSeconds bounds how long the executor waits on a
	// pending HITL decision before treating it as denied.
	ApprovalTimeoutSeconds int `json:"approval_timeout_seconds,omitempty" yaml:"approval_timeout_seconds,omitempty"`
	// EmbeddingModel names the embedding backend; unrecognized values
	// fall back to the default 1536-dimension hash embedder.
	EmbeddingModel string `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
	// ProviderAPIKeys maps a lowercase provider name to its API key,
	// populated only from MODEL_PROVIDER_API_KEY_* environment
	// variables; never read from or written to a config file.
	ProviderAPIKeys map[string]string `json:"-" yaml:"-"`
}

// ToAgent builds an agent.Agent from the file-based settings, assigning it
// the given id.
func (c *AgentConfig) ToAgent(id string) *agent.Agent {
	return &agent.Agent{
		ID:                  id,
		Name:                c.Name,
		Model:               c.Agent.Model,
		Provider:            c.Agent.Provider,
		Temperature:         c.Agent.Temperature,
		MaxTokens:           c.Agent.MaxTokens,
		Tools:               c.Agent.Tools,
		SystemPrompt:        c.Agent.SystemPrompt,
		SafetyGuardrails:    c.Agent.SafetyGuardrails,
		EnableMemory:        c.Agent.EnableMemory,
		EnableTools:         c.Agent.EnableTools,
		EnableLearning:      c.Agent.EnableLearning,
		EnableCollaboration: c.Agent.EnableCollaboration,
		MaxIterations:       c.Agent.MaxIterations,
	}
}

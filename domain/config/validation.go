package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates agent configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *AgentConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateAgent(config)
	v.validateRuntime(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *AgentConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateAgent(config *AgentConfig) {
	if config.Agent.Temperature < 0 || config.Agent.Temperature > 10 {
		v.addError("agent.temperature", "temperature must be between 0 and 10")
	}
	if config.Agent.MaxTokens < 0 {
		v.addError("agent.max_tokens", "max_tokens must be non-negative")
	}
	if config.Agent.MaxIterations < 0 {
		v.addError("agent.max_iterations", "max_iterations must be non-negative")
	}
}

func (v *Validator) validateRuntime(config *AgentConfig) {
	if config.Runtime.VectorBackend != "" {
		validBackends := map[string]bool{"local": true, "managed": true}
		if !validBackends[config.Runtime.VectorBackend] {
			v.addError("runtime.vector_backend", fmt.Sprintf("invalid backend: %s", config.Runtime.VectorBackend))
		}
	}
	if config.Runtime.ApprovalTimeoutSeconds < 0 {
		v.addError("runtime.approval_timeout_seconds", "approval_timeout_seconds must be non-negative")
	}
}

package safety

import "errors"

var (
	// ErrBudgetExceeded indicates a named resource budget has been
	// exhausted.
	ErrBudgetExceeded = errors.New("safety: budget exceeded")

	// ErrInvalidGuardrails indicates an agent's safety_guardrails blob
	// could not be parsed.
	ErrInvalidGuardrails = errors.New("safety: invalid guardrails configuration")
)

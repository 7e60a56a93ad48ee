package safety

import (
	"fmt"
	"strings"
)

// Condition is a pluggable guardrail predicate, adapted from the
// teacher's policy.Constraint interface. Unknown condition types pass
// (fail-open at this layer — guardrails express deny-rules, not
// allow-rules), so a misconfigured or forward-incompatible condition
// never blocks an otherwise-permitted action.
type Condition interface {
	// Name identifies the condition for the failure reason string.
	Name() string

	// Evaluate reports whether the condition is satisfied, and a reason
	// string to surface when it is not.
	Evaluate(ctx EvaluationContext) (bool, string)
}

// EvaluationContext is what a Condition evaluates against: the proposed
// action and the run-scoped state conditions may need to reason about.
type EvaluationContext struct {
	RunID       string
	ActionType  string
	Parameters  map[string]any
	ContextState map[string]any
	Budget      *Budget
}

// ConditionConfig is the declarative, JSON-serializable form of a
// Condition, as carried in an agent's safety_guardrails blob.
type ConditionConfig struct {
	Name string `json:"name"`
	// Type selects the condition implementation: "parameter_value",
	// "context_state", or "budget". Any other value is unknown and
	// fail-open.
	Type string `json:"type"`

	// Parameter is the action-parameter key inspected by
	// "parameter_value" conditions.
	Parameter string `json:"parameter,omitempty"`
	// Operator is one of "eq", "ne", "lt", "gt", "contains".
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`

	// ContextKey is the shared-context key inspected by "context_state"
	// conditions.
	ContextKey string `json:"context_key,omitempty"`

	// BudgetName and BudgetAmount parameterize "budget" conditions.
	BudgetName   string `json:"budget_name,omitempty"`
	BudgetAmount int    `json:"budget_amount,omitempty"`
}

// Build compiles a ConditionConfig into an evaluable Condition.
func (c ConditionConfig) Build() Condition {
	switch c.Type {
	case "parameter_value":
		return parameterValueCondition{name: c.Name, parameter: c.Parameter, operator: c.Operator, value: c.Value}
	case "context_state":
		return contextStateCondition{name: c.Name, key: c.ContextKey, operator: c.Operator, value: c.Value}
	case "budget":
		amount := c.BudgetAmount
		if amount == 0 {
			amount = 1
		}
		return budgetCondition{name: c.Name, resource: c.BudgetName, amount: amount}
	default:
		return unknownCondition{name: c.Name}
	}
}

type unknownCondition struct{ name string }

func (u unknownCondition) Name() string { return u.name }

func (u unknownCondition) Evaluate(EvaluationContext) (bool, string) {
	return true, ""
}

type parameterValueCondition struct {
	name      string
	parameter string
	operator  string
	value     any
}

func (p parameterValueCondition) Name() string { return p.name }

func (p parameterValueCondition) Evaluate(ctx EvaluationContext) (bool, string) {
	actual, ok := ctx.Parameters[p.parameter]
	if !ok {
		return true, "" // absent parameter has nothing to deny
	}
	if compare(actual, p.operator, p.value) {
		return true, ""
	}
	return false, fmt.Sprintf("parameter %q failed %s %v", p.parameter, p.operator, p.value)
}

type contextStateCondition struct {
	name     string
	key      string
	operator string
	value    any
}

func (c contextStateCondition) Name() string { return c.name }

func (c contextStateCondition) Evaluate(ctx EvaluationContext) (bool, string) {
	actual, ok := ctx.ContextState[c.key]
	if !ok {
		return true, ""
	}
	if compare(actual, c.operator, c.value) {
		return true, ""
	}
	return false, fmt.Sprintf("context state %q failed %s %v", c.key, c.operator, c.value)
}

type budgetCondition struct {
	name     string
	resource string
	amount   int
}

func (b budgetCondition) Name() string { return b.name }

func (b budgetCondition) Evaluate(ctx EvaluationContext) (bool, string) {
	if ctx.Budget == nil {
		return true, ""
	}
	if ctx.Budget.CanConsume(b.resource, b.amount) {
		return true, ""
	}
	return false, fmt.Sprintf("budget %q exhausted", b.resource)
}

// compare evaluates operator against actual/expected, returning true
// (satisfied) for an unrecognized operator or incomparable operand
// types — conditions deny explicitly, they don't fail open by accident
// but also never panic on bad config.
func compare(actual any, operator string, expected any) bool {
	switch operator {
	case "eq", "":
		return fmt.Sprint(actual) == fmt.Sprint(expected)
	case "ne":
		return fmt.Sprint(actual) != fmt.Sprint(expected)
	case "lt", "gt":
		a, aok := toFloat(actual)
		e, eok := toFloat(expected)
		if !aok || !eok {
			return true
		}
		if operator == "lt" {
			return a < e
		}
		return a > e
	case "contains":
		s, ok := actual.(string)
		sub, ok2 := expected.(string)
		if !ok || !ok2 {
			return true
		}
		return strings.Contains(s, sub)
	default:
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

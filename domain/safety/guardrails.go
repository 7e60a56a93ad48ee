package safety

import "encoding/json"

// GuardrailConfig is the parsed form of an agent's safety_guardrails
// blob (domain/agent.Agent.SafetyGuardrails).
type GuardrailConfig struct {
	// BlockedActions lists action types that are never allowed,
	// regardless of risk level.
	BlockedActions []string `json:"blocked_actions,omitempty"`

	// AllowHighRisk, when true, skips the REQUIRES_APPROVAL gate for
	// this agent — actions still pass through blocked_actions and
	// conditions.
	AllowHighRisk bool `json:"allow_high_risk,omitempty"`

	// Conditions are additional pluggable guardrail predicates.
	Conditions []ConditionConfig `json:"conditions,omitempty"`
}

// ParseGuardrails decodes an agent's opaque safety_guardrails blob. A nil
// or empty blob yields the zero-value config (no blocks, no extra
// conditions, approval gate active).
func ParseGuardrails(raw json.RawMessage) (GuardrailConfig, error) {
	var cfg GuardrailConfig
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, ErrInvalidGuardrails
	}
	return cfg, nil
}

// Decision is the outcome of a guardrail evaluation.
type Decision struct {
	Allowed              bool   `json:"allowed"`
	RequiresHumanApproval bool  `json:"requires_human_approval,omitempty"`
	Reason               string `json:"reason,omitempty"`
	RiskLevel            Level  `json:"risk_level"`
}

// Engine evaluates actions against an agent's guardrail configuration.
type Engine struct {
	config GuardrailConfig
}

// NewEngine builds an Engine from a parsed guardrail configuration.
func NewEngine(config GuardrailConfig) *Engine {
	return &Engine{config: config}
}

// Evaluate runs the fixed guardrail evaluation order:
//  1. blocked_actions check.
//  2. REQUIRES_APPROVAL set check, unless allow_high_risk.
//  3. per-condition evaluation, in configured order.
//  4. allow.
func (e *Engine) Evaluate(ctx EvaluationContext) Decision {
	risk := Classify(ctx.ActionType)

	for _, blocked := range e.config.BlockedActions {
		if blocked == ctx.ActionType {
			return Decision{Allowed: false, Reason: "blocked by guardrails", RiskLevel: risk}
		}
	}

	if RequiresApproval(ctx.ActionType) && !e.config.AllowHighRisk {
		return Decision{Allowed: false, RequiresHumanApproval: true, RiskLevel: risk}
	}

	for _, cc := range e.config.Conditions {
		cond := cc.Build()
		if ok, reason := cond.Evaluate(ctx); !ok {
			if reason == "" {
				reason = "condition " + cond.Name() + " failed"
			} else {
				reason = "condition " + cond.Name() + " failed: " + reason
			}
			return Decision{Allowed: false, Reason: reason, RiskLevel: risk}
		}
	}

	return Decision{Allowed: true, RiskLevel: risk}
}

// Package safety implements the Safety Engine: action risk
// classification, guardrail evaluation, and the resource budgets a
// guardrail condition may consult.
package safety

// Level is the assessed risk of a proposed action.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// classification maps an action type to its built-in risk level. Action
// types absent from this table default to LevelMedium.
var classification = map[string]Level{
	"data_deletion":         LevelCritical,
	"financial_transaction": LevelCritical,
	"user_communication":    LevelHigh,
	"data_modification":     LevelMedium,
	"data_read":             LevelLow,
	"calculation":           LevelLow,
}

// requiresApproval is the set of action types that require human approval
// unless the agent's guardrails explicitly allow high-risk actions.
var requiresApproval = map[string]bool{
	"data_deletion":         true,
	"financial_transaction": true,
	"user_communication":    true,
}

// Classify returns the risk level for an action type, defaulting to
// LevelMedium for unknown types.
func Classify(actionType string) Level {
	if level, ok := classification[actionType]; ok {
		return level
	}
	return LevelMedium
}

// RequiresApproval reports whether an action type is in the fixed
// REQUIRES_APPROVAL set, independent of any per-agent guardrail config.
func RequiresApproval(actionType string) bool {
	return requiresApproval[actionType]
}

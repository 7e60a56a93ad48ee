package tool

import (
	"context"
	"encoding/json"

	dtool "github.com/felixgeelhaar/agent-go/domain/tool"
)

// Builtins returns the registry's built-in tool set: `calculate`, which
// must evaluate expressions safely, plus stub tools for the action types
// the Safety Engine's risk table names. The spec fixes the shape of a
// stub tool's result, not its substance: each returns
// {"status":"mock","tool":<name>,"input":<input>}.
func Builtins() []dtool.Tool {
	return []dtool.Tool{
		Calculate(),
		stub("data_read", "Read data from a configured data source", dtool.ReadOnlyAnnotations()),
		stub("data_modification", "Modify data in a configured data source", dtool.Annotations{
			RiskLevel: dtool.RiskMedium,
		}),
		stub("data_deletion", "Delete data from a configured data source", dtool.DestructiveAnnotations()),
		stub("financial_transaction", "Execute a financial transaction", dtool.Annotations{
			Destructive:      true,
			RiskLevel:        dtool.RiskCritical,
			RequiresApproval: true,
		}),
		stub("user_communication", "Send a message to a human user", dtool.Annotations{
			RiskLevel:        dtool.RiskHigh,
			RequiresApproval: true,
		}),
	}
}

// stub builds a mock tool: the spec permits a stub implementation for
// every built-in except `calculate`, since the core's contract is the
// registry's resolution and observation shape, not any concrete
// integration (web search, e-mail, databases are external collaborators).
func stub(name, description string, annotations dtool.Annotations) dtool.Tool {
	return dtool.NewBuilder(name).
		WithDescription(description).
		WithAnnotations(annotations).
		WithHandler(func(ctx context.Context, input json.RawMessage) (dtool.Result, error) {
			out, err := json.Marshal(map[string]any{"status": "mock", "tool": name, "input": json.RawMessage(input)})
			if err != nil {
				return dtool.Result{}, err
			}
			return dtool.NewResult(out), nil
		}).
		MustBuild()
}

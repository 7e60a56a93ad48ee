package reasoning

import (
	"encoding/json"

	"github.com/felixgeelhaar/agent-go/domain/trace"
)

// mockResponse is the deterministic fallback used when no provider is
// configured for an agent, or the configured provider's call fails.
func mockResponse() Response {
	result, _ := json.Marshal(map[string]string{"status": "success", "message": "Mock completion"})

	return Response{
		Reasoning:  "Analyzing the task and determining next steps...",
		Reflection: "Successfully completed the task",
		TokensUsed: 150,
		Action: trace.Action{
			Type:        "finish",
			Description: "Task completed successfully",
			Result:      result,
		},
	}
}

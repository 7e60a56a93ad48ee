package reasoning

import (
	"encoding/json"
	"strings"

	"github.com/felixgeelhaar/agent-go/domain/trace"
)

// parseReActResponse extracts the Thought/Action/Action Input/Result
// lines from a provider completion, matching the line-oriented grammar
// described in the prompt. Prefix matching is case-insensitive; an
// Action Input that fails to decode as JSON is carried as a raw string
// instead of being dropped, and a response with no Action line is
// treated as "finish" (the model considered the task complete).
func parseReActResponse(content string) Response {
	var thought, actionType, actionInput, reflection string

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))

		switch {
		case strings.HasPrefix(lower, "thought:"):
			thought = valueAfterColon(line)
		case strings.HasPrefix(lower, "action input:"):
			actionInput = valueAfterColon(line)
		case strings.HasPrefix(lower, "action:"):
			actionType = valueAfterColon(line)
		case strings.HasPrefix(lower, "result:"):
			reflection = valueAfterColon(line)
		}
	}

	if actionType == "" {
		actionType = "finish"
	}

	var parameters json.RawMessage
	if actionInput != "" {
		if json.Valid([]byte(actionInput)) {
			parameters = json.RawMessage(actionInput)
		} else {
			raw, _ := json.Marshal(map[string]string{"raw": actionInput})
			parameters = raw
		}
	}

	var result json.RawMessage
	if actionType == "finish" && reflection != "" {
		raw, _ := json.Marshal(reflection)
		result = raw
	}

	return Response{
		Reasoning:  thought,
		Reflection: reflection,
		Action: trace.Action{
			Type:        actionType,
			Description: thought,
			Parameters:  parameters,
			Result:      result,
		},
	}
}

// valueAfterColon returns the text after the first colon, trimmed.
func valueAfterColon(line string) string {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

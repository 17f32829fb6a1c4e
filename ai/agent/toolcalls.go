package agent

import (
	"encoding/json"
	"strings"

	"github.com/elevatehq/elevate/ai/llm"
)

// toolCallsDelimiter separates visible assistant text from the embedded
// tool-call record inside a persisted agent message.
const toolCallsDelimiter = "\n\nTool Calls: "

// ToolCallRecord is the persisted trace of one tool invocation made during
// an agent turn, including what the tool returned.
type ToolCallRecord struct {
	Name      string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"output"`
}

// EncodeToolCalls appends the JSON tool-call trace to the assistant text so
// both survive in a single stored message. Text without calls is returned
// unchanged.
func EncodeToolCalls(text string, calls []ToolCallRecord) string {
	if len(calls) == 0 {
		return text
	}
	raw, err := json.Marshal(calls)
	if err != nil {
		return text
	}
	return text + toolCallsDelimiter + string(raw)
}

// DecodeToolCalls splits a stored agent message back into visible text and
// its tool-call trace. Content without the delimiter, or with a trailer
// that does not parse as a record array, is returned whole with no calls.
func DecodeToolCalls(content string) (string, []ToolCallRecord) {
	idx := strings.LastIndex(content, toolCallsDelimiter)
	if idx < 0 {
		return content, nil
	}
	var calls []ToolCallRecord
	if err := json.Unmarshal([]byte(content[idx+len(toolCallsDelimiter):]), &calls); err != nil {
		return content, nil
	}
	return content[:idx], calls
}

// marshalArguments renders a tool-call argument map as the JSON string the
// chat completion API expects.
func marshalArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// toolResultMessage shapes a tool execution result as the follow-up turn
// the model expects after emitting a tool call.
func toolResultMessage(call llm.ToolCall, result string) llm.Message {
	return llm.Message{
		Role:       "tool",
		Content:    result,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
	}
}

package agent

import (
	"fmt"

	"github.com/elevatehq/elevate/ai/llm"
	"github.com/elevatehq/elevate/store"
)

// historyFromMessages replays stored conversation messages as model turns.
// Agent messages carrying an embedded tool-call trace expand into an
// assistant turn that re-declares the calls followed by one tool-result
// turn per call, so the model sees the same shape it originally produced.
func historyFromMessages(messages []*store.Message) []llm.Message {
	var history []llm.Message
	for _, msg := range messages {
		switch msg.Sender {
		case store.SenderUser:
			history = append(history, llm.UserMessage(msg.Content))
		case store.SenderAgent:
			text, calls := DecodeToolCalls(msg.Content)
			assistant := llm.AssistantMessage(text)
			results := make([]llm.Message, 0, len(calls))
			for i, call := range calls {
				// A call with no recorded output has no result turn to
				// pair it with, so it is left out of the replay.
				if call.Result == "" {
					continue
				}
				replayed := llm.ToolCall{
					ID:   fmt.Sprintf("history_%d_%d", msg.ID, i),
					Type: "function",
					Function: llm.FunctionCall{
						Name:      call.Name,
						Arguments: marshalArguments(call.Arguments),
					},
				}
				assistant.ToolCalls = append(assistant.ToolCalls, replayed)
				results = append(results, toolResultMessage(replayed, call.Result))
			}
			history = append(history, assistant)
			history = append(history, results...)
		case store.SenderSystem:
			history = append(history, llm.SystemPrompt(msg.Content))
		}
	}
	return history
}

package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elevatehq/elevate/store"
)

func TestHistoryFromMessagesPlainTurns(t *testing.T) {
	messages := []*store.Message{
		{ID: 1, Sender: store.SenderUser, Content: "add a task"},
		{ID: 2, Sender: store.SenderAgent, Content: "Which task?"},
	}

	history := historyFromMessages(messages)
	require.Len(t, history, 2)
	require.Equal(t, "user", history[0].Role)
	require.Equal(t, "add a task", history[0].Content)
	require.Equal(t, "assistant", history[1].Role)
	require.Equal(t, "Which task?", history[1].Content)
}

func TestHistoryFromMessagesExpandsToolCalls(t *testing.T) {
	stored := EncodeToolCalls("Added it.", []ToolCallRecord{
		{
			Name:      "add_task",
			Arguments: map[string]any{"user_id": "alice", "title": "Buy milk"},
			Result:    "Task 'Buy milk' (ID: abc) for user alice added successfully.",
		},
	})
	messages := []*store.Message{
		{ID: 1, Sender: store.SenderUser, Content: "add buy milk"},
		{ID: 2, Sender: store.SenderAgent, Content: stored},
	}

	history := historyFromMessages(messages)
	require.Len(t, history, 3)

	assistant := history[1]
	require.Equal(t, "assistant", assistant.Role)
	require.Equal(t, "Added it.", assistant.Content)
	require.Len(t, assistant.ToolCalls, 1)
	require.Equal(t, "add_task", assistant.ToolCalls[0].Function.Name)

	result := history[2]
	require.Equal(t, "tool", result.Role)
	require.Equal(t, assistant.ToolCalls[0].ID, result.ToolCallID)
	require.Equal(t, "add_task", result.ToolName)
	require.Contains(t, result.Content, "added successfully")
}

func TestHistoryFromMessagesSkipsCallsWithoutOutput(t *testing.T) {
	stored := EncodeToolCalls("Done.", []ToolCallRecord{
		{
			Name:      "add_task",
			Arguments: map[string]any{"user_id": "alice", "title": "Buy milk"},
		},
		{
			Name:      "list_tasks",
			Arguments: map[string]any{"user_id": "alice"},
			Result:    "Tasks for user alice:",
		},
	})
	messages := []*store.Message{
		{ID: 1, Sender: store.SenderAgent, Content: stored},
	}

	history := historyFromMessages(messages)
	require.Len(t, history, 2)

	assistant := history[0]
	require.Len(t, assistant.ToolCalls, 1)
	require.Equal(t, "list_tasks", assistant.ToolCalls[0].Function.Name)

	result := history[1]
	require.Equal(t, "tool", result.Role)
	require.Equal(t, "list_tasks", result.ToolName)
}

func TestHistoryFromMessagesSystemSender(t *testing.T) {
	history := historyFromMessages([]*store.Message{
		{ID: 1, Sender: store.SenderSystem, Content: "remember this"},
	})
	require.Len(t, history, 1)
	require.Equal(t, "system", history[0].Role)
}

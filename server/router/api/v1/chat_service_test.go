package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elevatehq/elevate/ai/agent"
	"github.com/elevatehq/elevate/store"
)

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestChatEndpoint(t *testing.T) {
	chatAgent := &scriptedAgent{result: &agent.TurnResult{
		Message: "Added Buy milk to your list.",
		ToolCalls: []agent.ToolCallRecord{{
			Name:      "add_task",
			Arguments: map[string]any{"user_id": "alice", "title": "Buy milk"},
			Result:    "Task 'Buy milk' (ID: abc) for user alice added successfully.",
		}},
		Persisted: true,
	}}
	ts, _ := newAPITestServer(t, chatAgent)

	resp := postJSON(t, ts.URL+"/api/v1/chat/alice/chat", `{"message":"add buy milk"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	require.Equal(t, "Added Buy milk to your list.", body["ai_message"])
	calls := body["tool_calls"].([]any)
	require.Len(t, calls, 1)
	call := calls[0].(map[string]any)
	require.Equal(t, "add_task", call["tool_name"])
	require.Contains(t, call["output"], "added successfully")

	require.Equal(t, "alice", chatAgent.lastUserID)
	require.Equal(t, "add buy milk", chatAgent.lastMessage)
}

func TestChatValidation(t *testing.T) {
	ts, _ := newAPITestServer(t, &scriptedAgent{})

	resp := postJSON(t, ts.URL+"/api/v1/chat/alice/chat", `{"message":"   "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	long := strings.Repeat("x", 2001)
	resp = postJSON(t, ts.URL+"/api/v1/chat/alice/chat", fmt.Sprintf(`{"message":%q}`, long))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatAgentFailure(t *testing.T) {
	ts, _ := newAPITestServer(t, &scriptedAgent{err: fmt.Errorf("db down")})

	resp := postJSON(t, ts.URL+"/api/v1/chat/alice/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestChatHistory(t *testing.T) {
	ts, st := newAPITestServer(t, &scriptedAgent{})
	ctx := context.Background()

	conversation, err := st.GetOrCreateConversation(ctx, "alice")
	require.NoError(t, err)
	_, err = st.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Sender:         store.SenderUser,
		Content:        "add buy milk",
		Kind:           store.MessageKindStandard,
		CreatedTs:      1700000001,
	})
	require.NoError(t, err)
	_, err = st.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Sender:         store.SenderAgent,
		Content: agent.EncodeToolCalls("Added it.", []agent.ToolCallRecord{{
			Name:      "add_task",
			Arguments: map[string]any{"user_id": "alice", "title": "Buy milk"},
			Result:    "Task 'Buy milk' (ID: abc) for user alice added successfully.",
		}}),
		Kind:      store.MessageKindResponse,
		CreatedTs: 1700000002,
	})
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/v1/chat/alice/chat/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	history := decodeBody[[]map[string]any](t, resp)
	require.Len(t, history, 2)
	require.Equal(t, "user", history[0]["sender"])
	require.Equal(t, "add buy milk", history[0]["message"])
	require.Empty(t, history[0]["tool_calls"])

	require.Equal(t, "agent", history[1]["sender"])
	require.Equal(t, "Added it.", history[1]["message"])
	agentCalls := history[1]["tool_calls"].([]any)
	require.Len(t, agentCalls, 1)
	require.Equal(t, "add_task", agentCalls[0].(map[string]any)["tool_name"])
}

func TestChatHistoryEmptyForUnknownUser(t *testing.T) {
	ts, _ := newAPITestServer(t, &scriptedAgent{})

	resp, err := http.Get(ts.URL + "/api/v1/chat/ghost/chat/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decodeBody[[]any](t, resp))
}

func TestRememberAndMemories(t *testing.T) {
	ts, _ := newAPITestServer(t, &scriptedAgent{})

	resp := postJSON(t, ts.URL+"/api/v1/chat/alice/remember", `{"content":"Prefers morning reminders","tags":["schedule","important"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeBody[map[string]any](t, resp)
	require.Equal(t, "Information saved to memory successfully", saved["message"])
	require.NotZero(t, saved["id"])

	memResp, err := http.Get(ts.URL + "/api/v1/chat/alice/memories")
	require.NoError(t, err)
	defer memResp.Body.Close()
	require.Equal(t, http.StatusOK, memResp.StatusCode)

	memories := decodeBody[[]map[string]any](t, memResp)
	require.Len(t, memories, 1)
	require.Equal(t, "Prefers morning reminders", memories[0]["content"])
	require.Equal(t, []any{"schedule", "important"}, memories[0]["tags"])
}

func TestRememberValidation(t *testing.T) {
	ts, _ := newAPITestServer(t, &scriptedAgent{})

	resp := postJSON(t, ts.URL+"/api/v1/chat/alice/remember", `{"content":"  "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/chat/alice/remember", `{"content":"x","importance":6}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/chat/alice/remember", `{"content":"x","importance":0}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMemoriesEmptyForUnknownUser(t *testing.T) {
	ts, _ := newAPITestServer(t, &scriptedAgent{})

	resp, err := http.Get(ts.URL + "/api/v1/chat/ghost/memories")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decodeBody[[]any](t, resp))
}

func TestForgetMemory(t *testing.T) {
	ts, _ := newAPITestServer(t, &scriptedAgent{})

	resp := postJSON(t, ts.URL+"/api/v1/chat/alice/remember", `{"content":"temp note"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeBody[map[string]any](t, resp)
	id := int64(saved["id"].(float64))

	// Another user may not delete it.
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/chat/bob/memory/%d", ts.URL, id), nil)
	require.NoError(t, err)
	forbidden, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	forbidden.Body.Close()
	require.Equal(t, http.StatusForbidden, forbidden.StatusCode)

	// The owner may.
	req, err = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/chat/alice/memory/%d", ts.URL, id), nil)
	require.NoError(t, err)
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	ok.Body.Close()
	require.Equal(t, http.StatusOK, ok.StatusCode)

	// Gone now.
	req, err = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/chat/alice/memory/%d", ts.URL, id), nil)
	require.NoError(t, err)
	gone, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	gone.Body.Close()
	require.Equal(t, http.StatusNotFound, gone.StatusCode)
}

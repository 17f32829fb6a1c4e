package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elevatehq/elevate/internal/profile"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	server := NewServer(&profile.Profile{Mode: "prod"}, st, registry)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, ts
}

func TestServerHealthz(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerListTools(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/mcp_tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tools []Tool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tools))
	require.Len(t, tools, 5)
	require.Equal(t, "add_task", tools[0].Name)
	require.NotEmpty(t, tools[0].Description)
	require.Contains(t, tools[0].InputSchema, "properties")
}

func TestServerCallTool(t *testing.T) {
	_, ts := newTestServer(t)

	body := `{"tool_name":"add_task","arguments":{"user_id":"alice","title":"Buy milk"}}`
	resp, err := http.Post(ts.URL+"/mcp_call", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response CallToolResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.Len(t, response.Results.Content, 1)
	require.Equal(t, "text", response.Results.Content[0].Type)
	require.Contains(t, response.Results.Content[0].Text, "added successfully")
}

func TestServerCallToolUnknownName(t *testing.T) {
	_, ts := newTestServer(t)

	body := `{"tool_name":"launch_rocket","arguments":{}}`
	resp, err := http.Post(ts.URL+"/mcp_call", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Unknown tools are a failure result, not a transport error.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var response CallToolResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.Equal(t, "Error: Tool 'launch_rocket' not found.", response.Results.Content[0].Text)
}

func TestServerCallToolMalformedBody(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/mcp_call", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerCallToolMissingName(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/mcp_call", "application/json", strings.NewReader(`{"arguments":{}}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

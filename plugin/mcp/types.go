// Package mcp implements the task tool server and client. Tools are
// exposed over an HTTP boundary: GET /mcp_tools lists tool descriptors,
// POST /mcp_call invokes one. All tool outcomes, success or failure, are
// normalized into a uniform result of typed content blocks.
package mcp

import "fmt"

// Tool describes a tool offered to the language model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// TextContent is a typed content block inside a tool result.
type TextContent struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// CallToolResult is the uniform envelope for tool outcomes. Failures are
// carried as content, not as transport errors, so callers treat all
// outcomes identically.
type CallToolResult struct {
	Content []TextContent `json:"content"`
}

// NewTextResult wraps a single text block into a result.
func NewTextResult(text string) CallToolResult {
	return CallToolResult{Content: []TextContent{{Text: text, Type: "text"}}}
}

// CallToolRequest is the body of POST /mcp_call.
type CallToolRequest struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// CallToolResponse is the body returned by POST /mcp_call.
type CallToolResponse struct {
	Results CallToolResult `json:"results"`
}

// StatusError is returned by the client when the tool server answers with
// a non-2xx status.
type StatusError struct {
	Body string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tool server returned status %d: %s", e.Code, e.Body)
}

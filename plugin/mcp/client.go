package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

// ErrConnection wraps failures to reach the tool server at all, as opposed
// to the server answering with an error status (StatusError).
var ErrConnection = errors.New("tool server unreachable")

// Client calls the tool server over HTTP. A circuit breaker sheds load when
// the tool server is down so chat turns fail fast instead of stacking up
// behind connect timeouts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a tool server client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mcp-client",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// ListTools fetches the tool manifest from the tool server.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	body, err := c.do(ctx, http.MethodGet, "/mcp_tools", nil)
	if err != nil {
		return nil, err
	}

	var tools []Tool
	if err := json.Unmarshal(body, &tools); err != nil {
		return nil, errors.Wrap(err, "failed to decode tool list")
	}
	return tools, nil
}

// CallTool invokes a named tool and returns the text of the first content
// block of its result.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	payload, err := json.Marshal(CallToolRequest{ToolName: name, Arguments: arguments})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode tool call request")
	}

	body, err := c.do(ctx, http.MethodPost, "/mcp_call", payload)
	if err != nil {
		return "", err
	}

	var response CallToolResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrap(err, "failed to decode tool call response")
	}
	if len(response.Results.Content) == 0 {
		return "", errors.New("tool call returned no content")
	}
	return response.Results.Content[0].Text, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build request")
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(ErrConnection, "%v", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrapf(ErrConnection, "read response: %v", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Wrapf(ErrConnection, "%v", err)
		}
		return nil, err
	}
	return result.([]byte), nil
}

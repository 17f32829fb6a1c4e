package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/elevatehq/elevate/store"
)

// ToolFunc is a tool implementation. It receives the persistence handle and
// the decoded argument map, and returns a human-readable result string. A
// returned error never propagates past the registry; it is folded into a
// failure result.
type ToolFunc func(ctx context.Context, st *store.Store, args map[string]any) (string, error)

type toolEntry struct {
	tool Tool
	impl ToolFunc
}

// Registry manages tool registration and invocation.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*toolEntry
	order []string // registration order, for stable listings
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*toolEntry),
	}
}

// Register inserts a tool under its name. The last registration for a given
// name wins; duplicates are logged since they usually indicate a wiring bug.
func (r *Registry) Register(tool Tool, impl ToolFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		slog.Warn("tool already registered, overwriting", "tool", tool.Name)
	} else {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = &toolEntry{tool: tool, impl: impl}
}

// List returns all registered tool descriptors in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].tool)
	}
	return tools
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Invoke looks up a tool by name and executes it against the given store.
// Tool-level failures (unknown name, implementation error) are converted
// into failure results; they never surface as errors.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any, st *store.Store) CallToolResult {
	r.mu.RLock()
	entry, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return NewTextResult(fmt.Sprintf("Error: Tool '%s' not found.", name))
	}

	output, err := entry.impl(ctx, st, args)
	if err != nil {
		slog.Warn("tool execution failed", "tool", name, "error", err)
		return NewTextResult(fmt.Sprintf("Error calling tool '%s': %v", name, err))
	}
	return NewTextResult(output)
}

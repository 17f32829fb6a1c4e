// Package agent runs the tool-calling conversation loop: it grounds the
// model with user memories, offers it the task tools, executes at most one
// requested tool call per turn, and persists the exchange.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/elevatehq/elevate/ai/llm"
	"github.com/elevatehq/elevate/ai/memory"
	"github.com/elevatehq/elevate/ai/metrics"
	"github.com/elevatehq/elevate/plugin/mcp"
	"github.com/elevatehq/elevate/store"
)

// Fixed degraded-mode replies when the tool server cannot provide the
// manifest. Unreachable and unhealthy are reported differently.
const (
	MsgToolsUnreachable = "Sorry, I can't connect to the task management tools right now."
	MsgToolsFailing     = "Sorry, there was an issue with the task management tools."
)

const systemPromptFormat = "You are a helpful task management assistant with memory capabilities. " +
	"Use the available tools to manage tasks. All task operations require a user_id. " +
	"The current user_id is '%s'. Use this user_id for all tool calls unless explicitly told otherwise by the user.\n\n"

// memoryRecallLimit bounds how many memories are loaded per turn; only the
// first memoryPromptLimit of them are embedded in the system instruction.
const (
	memoryRecallLimit = 10
	memoryPromptLimit = 5
)

// Transport is the tool-server client surface the orchestrator needs.
// *mcp.Client satisfies it.
type Transport interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (string, error)
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	Message   string
	ToolCalls []ToolCallRecord
	// Persisted is false when the turn degraded before any write, which
	// happens only on manifest-fetch failure.
	Persisted bool
}

// Options tunes orchestrator behavior.
type Options struct {
	// MaxConcurrentTurns caps turns in flight across all users. <= 0 means 16.
	MaxConcurrentTurns int64
	Metrics            *metrics.PrometheusExporter
}

// Orchestrator drives chat turns. Turns for the same user are serialized;
// turns across users run concurrently up to a global cap.
type Orchestrator struct {
	store     *store.Store
	llm       llm.Service
	transport Transport
	exporter  *metrics.PrometheusExporter

	sem *semaphore.Weighted

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// New creates an orchestrator over the given store, model and tool transport.
func New(s *store.Store, llmService llm.Service, transport Transport, opts Options) *Orchestrator {
	maxTurns := opts.MaxConcurrentTurns
	if maxTurns <= 0 {
		maxTurns = 16
	}
	return &Orchestrator{
		store:     s,
		llm:       llmService,
		transport: transport,
		exporter:  opts.Metrics,
		sem:       semaphore.NewWeighted(maxTurns),
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		o.userLocks[userID] = lock
	}
	return lock
}

// RunTurn processes one user message end to end and returns the agent reply
// with any executed tool calls. A returned error means the turn could not
// be persisted and should surface as an internal failure; degraded replies
// (tool server down, inference failure) come back as a normal TurnResult.
func (o *Orchestrator) RunTurn(ctx context.Context, userID, userMessage string) (*TurnResult, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "acquire turn slot")
	}
	defer o.sem.Release(1)

	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if o.exporter != nil {
		o.exporter.TurnStarted()
		defer o.exporter.TurnFinished()
	}
	start := time.Now()

	conversation, err := o.store.GetOrCreateConversation(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get conversation")
	}

	history, err := o.store.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversation.ID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}

	// Manifest fetch. Failure here degrades the whole turn before any
	// write: the user message is not persisted.
	manifest, err := o.transport.ListTools(ctx)
	if err != nil {
		reply := MsgToolsFailing
		outcome := "tools_error"
		if errors.Is(err, mcp.ErrConnection) {
			reply = MsgToolsUnreachable
			outcome = "tools_unreachable"
		}
		slog.Error("agent: fetching tool manifest failed", "user_id", userID, "error", err)
		o.recordTurn(outcome, start)
		return &TurnResult{Message: reply}, nil
	}

	descriptors := describeTools(manifest)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.SystemPrompt(o.systemPrompt(userID, history)))
	messages = append(messages, historyFromMessages(history)...)
	withUser := append(messages, llm.UserMessage(userMessage))

	answer := ""
	var calls []ToolCallRecord

	llmStart := time.Now()
	resp, err := o.llm.ChatWithTools(ctx, withUser, descriptors)
	o.recordLLMLatency("initial", llmStart)
	switch {
	case err != nil:
		slog.Error("agent: inference failed", "user_id", userID, "error", err)
		answer = llm.ClassifyInferenceError(err)
		o.recordTurn("inference_error", start)

	case len(resp.ToolCalls) > 0:
		// One tool call per turn: only the first requested call runs.
		call := resp.ToolCalls[0]
		output := o.executeTool(ctx, call)
		calls = append(calls, ToolCallRecord{
			Name:      call.Function.Name,
			Arguments: parseArguments(call.Function.Arguments),
			Result:    output,
		})

		// Re-infer exactly once with the tool result, on the history
		// without the just-added user turn.
		assistant := llm.AssistantMessage(resp.Content)
		assistant.ToolCalls = []llm.ToolCall{call}
		followUp := make([]llm.Message, 0, len(messages)+2)
		followUp = append(followUp, messages...)
		followUp = append(followUp, assistant, toolResultMessage(call, output))

		followUpStart := time.Now()
		answer, err = o.llm.Chat(ctx, followUp)
		o.recordLLMLatency("follow_up", followUpStart)
		if err != nil {
			slog.Error("agent: follow-up inference failed", "user_id", userID, "error", err)
			answer = llm.ClassifyInferenceError(err)
			o.recordTurn("inference_error", start)
		} else {
			o.recordTurn("ok", start)
		}

	default:
		answer = resp.Content
		o.recordTurn("ok", start)
	}

	// Persist user then agent message, each as its own write.
	if _, err := o.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Sender:         store.SenderUser,
		Content:        userMessage,
		Kind:           store.MessageKindStandard,
	}); err != nil {
		return nil, errors.Wrap(err, "persist user message")
	}
	if _, err := o.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Sender:         store.SenderAgent,
		Content:        EncodeToolCalls(answer, calls),
		Kind:           store.MessageKindResponse,
	}); err != nil {
		return nil, errors.Wrap(err, "persist agent message")
	}

	return &TurnResult{Message: answer, ToolCalls: calls, Persisted: true}, nil
}

func (o *Orchestrator) systemPrompt(userID string, history []*store.Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, systemPromptFormat, userID)

	memories := memory.Recall(history, memoryRecallLimit)
	if len(memories) > 0 {
		sb.WriteString("Important information about the user:\n")
		for i, mem := range memories {
			if i >= memoryPromptLimit {
				break
			}
			sb.WriteString("- " + mem.Content + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// executeTool runs a single requested call against the tool server. Failures
// never abort the turn: they come back as the tool output string so the
// model can explain them to the user.
func (o *Orchestrator) executeTool(ctx context.Context, call llm.ToolCall) string {
	name := call.Function.Name
	args := parseArguments(call.Function.Arguments)

	start := time.Now()
	output, err := o.transport.CallTool(ctx, name, args)
	if o.exporter != nil {
		o.exporter.RecordToolCall(name, time.Since(start), err == nil)
	}
	if err == nil {
		return output
	}

	slog.Warn("agent: tool call failed", "tool", name, "error", err)
	var statusErr *mcp.StatusError
	switch {
	case errors.Is(err, mcp.ErrConnection):
		return fmt.Sprintf("MCP server request failed: %v", err)
	case errors.As(err, &statusErr):
		return fmt.Sprintf("MCP server returned error: %d - %s", statusErr.Code, statusErr.Body)
	default:
		return fmt.Sprintf("Error during tool execution: %v", err)
	}
}

func (o *Orchestrator) recordTurn(outcome string, start time.Time) {
	if o.exporter != nil {
		o.exporter.RecordTurn(outcome, time.Since(start))
	}
}

func (o *Orchestrator) recordLLMLatency(phase string, start time.Time) {
	if o.exporter != nil {
		o.exporter.RecordLLMLatency(phase, time.Since(start))
	}
}

// describeTools sanitizes each manifest schema and shapes it for the model.
// A tool whose schema cannot be rendered is dropped, not fatal.
func describeTools(manifest []mcp.Tool) []llm.ToolDescriptor {
	descriptors := make([]llm.ToolDescriptor, 0, len(manifest))
	for _, tool := range manifest {
		schema := SanitizeSchema(tool.InputSchema)
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		raw, err := json.Marshal(schema)
		if err != nil {
			slog.Warn("agent: dropping tool with unrenderable schema", "tool", tool.Name, "error", err)
			continue
		}
		descriptors = append(descriptors, llm.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  string(raw),
		})
	}
	return descriptors
}

func parseArguments(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		slog.Warn("agent: unparseable tool arguments", "error", err)
		return map[string]any{}
	}
	return args
}

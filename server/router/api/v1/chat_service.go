package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/elevatehq/elevate/ai/agent"
	"github.com/elevatehq/elevate/ai/memory"
	"github.com/elevatehq/elevate/store"
)

const maxMessageLength = 2000

// ChatService serves the conversational endpoints: chat turns, history,
// and explicit memory management.
type ChatService struct {
	Store *store.Store
	Agent ChatAgent
}

type chatRequest struct {
	Message string `json:"message"`
}

type toolCallView struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Output    string         `json:"output,omitempty"`
}

type chatResponse struct {
	AIMessage string         `json:"ai_message"`
	ToolCalls []toolCallView `json:"tool_calls"`
}

type messageDisplay struct {
	Message   string         `json:"message"`
	Sender    string         `json:"sender"`
	CreatedAt time.Time      `json:"created_at"`
	ToolCalls []toolCallView `json:"tool_calls"`
}

type rememberRequest struct {
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Importance *int     `json:"importance"`
}

// Chat runs one agent turn for the user.
func (s *ChatService) Chat(c echo.Context) error {
	userID := c.Param("userID")

	var request chatRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed chat request")
	}
	if strings.TrimSpace(request.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message cannot be empty")
	}
	if len(request.Message) > maxMessageLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Message too long, max 2000 characters")
	}

	result, err := s.Agent.RunTurn(c.Request().Context(), userID, request.Message)
	if err != nil {
		slog.Error("chat turn failed", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "An error occurred processing your request")
	}

	return c.JSON(http.StatusOK, chatResponse{
		AIMessage: result.Message,
		ToolCalls: toolCallViews(result.ToolCalls),
	})
}

// GetHistory returns the user's conversation, embedded tool-call traces
// decoded back out of the stored content.
func (s *ChatService) GetHistory(c echo.Context) error {
	userID := c.Param("userID")
	ctx := c.Request().Context()

	conversation, err := s.Store.GetConversationByUserID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversation")
	}
	if conversation == nil {
		return c.JSON(http.StatusOK, []messageDisplay{})
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load messages")
	}

	history := make([]messageDisplay, 0, len(messages))
	for _, msg := range messages {
		text, calls := agent.DecodeToolCalls(msg.Content)
		history = append(history, messageDisplay{
			Message:   strings.TrimSpace(text),
			Sender:    string(msg.Sender),
			CreatedAt: time.Unix(msg.CreatedTs, 0).UTC(),
			ToolCalls: toolCallViews(calls),
		})
	}
	return c.JSON(http.StatusOK, history)
}

// Remember stores user-supplied content as an explicit memory.
func (s *ChatService) Remember(c echo.Context) error {
	userID := c.Param("userID")

	var request rememberRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed remember request")
	}
	if strings.TrimSpace(request.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Content cannot be empty")
	}
	if len(request.Content) > maxMessageLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Content too long, max 2000 characters")
	}
	importance := 3
	if request.Importance != nil {
		importance = *request.Importance
	}
	if importance < 1 || importance > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "Importance must be between 1 and 5")
	}

	ctx := c.Request().Context()
	conversation, err := s.Store.GetOrCreateConversation(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save memory")
	}

	tags := "important"
	if len(request.Tags) > 0 {
		tags = strings.Join(request.Tags, ",")
	}
	message, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Sender:         store.SenderSystem,
		Content:        request.Content,
		Kind:           store.MessageKindMemory,
		Tags:           tags,
		CreatedTs:      time.Now().Unix(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save memory")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Information saved to memory successfully",
		"id":      message.ID,
	})
}

// GetMemories lists the user's memory entries, most recent first.
func (s *ChatService) GetMemories(c echo.Context) error {
	userID := c.Param("userID")
	ctx := c.Request().Context()

	threshold := 2
	if raw := c.QueryParam("importance_threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "importance_threshold must be an integer")
		}
		threshold = parsed
	}

	conversation, err := s.Store.GetConversationByUserID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversation")
	}
	if conversation == nil {
		return c.JSON(http.StatusOK, []memory.Entry{})
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversation.ID,
		OrderDesc:      true,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load messages")
	}

	entries := memory.Extract(messages, threshold)
	if entries == nil {
		entries = []memory.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// ForgetMemory removes one stored memory, owner-checked.
func (s *ChatService) ForgetMemory(c echo.Context) error {
	userID := c.Param("userID")
	messageID, err := strconv.ParseInt(c.Param("messageID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid memory id")
	}

	ctx := c.Request().Context()
	message, err := s.Store.GetMessage(ctx, messageID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load memory")
	}
	if message == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Memory not found")
	}

	conversation, err := s.Store.GetConversationByUserID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversation")
	}
	if conversation == nil || conversation.ID != message.ConversationID {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete this memory")
	}

	if err := s.Store.DeleteMessage(ctx, &store.DeleteMessage{ID: messageID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete memory")
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Memory removed successfully"})
}

func toolCallViews(calls []agent.ToolCallRecord) []toolCallView {
	views := make([]toolCallView, 0, len(calls))
	for _, call := range calls {
		views = append(views, toolCallView{
			ToolName:  call.Name,
			Arguments: call.Arguments,
			Output:    call.Result,
		})
	}
	return views
}

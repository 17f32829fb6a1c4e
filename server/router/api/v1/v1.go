// Package v1 carries the versioned REST API: chat with the agent, memory
// management, and task CRUD.
package v1

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/elevatehq/elevate/ai/agent"
	"github.com/elevatehq/elevate/internal/profile"
	"github.com/elevatehq/elevate/store"
)

// ChatAgent is the conversational loop behind POST /chat. Satisfied by
// *agent.Orchestrator.
type ChatAgent interface {
	RunTurn(ctx context.Context, userID, userMessage string) (*agent.TurnResult, error)
}

type APIV1Service struct {
	ChatService *ChatService
	TaskService *TaskService

	Profile *profile.Profile
	Store   *store.Store
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store, chatAgent ChatAgent) *APIV1Service {
	return &APIV1Service{
		ChatService: &ChatService{Store: st, Agent: chatAgent},
		TaskService: &TaskService{Store: st},
		Profile:     profile,
		Store:       st,
	}
}

// Register mounts all v1 routes on the given Echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	limiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(10),
			Burst:     20,
			ExpiresIn: 3 * time.Minute,
		}),
	})

	chatGroup := e.Group("/api/v1/chat", limiter, validatePathUserID)
	chatGroup.POST("/:userID/chat", s.ChatService.Chat)
	chatGroup.GET("/:userID/chat/history", s.ChatService.GetHistory)
	chatGroup.POST("/:userID/remember", s.ChatService.Remember)
	chatGroup.GET("/:userID/memories", s.ChatService.GetMemories)
	chatGroup.DELETE("/:userID/memory/:messageID", s.ChatService.ForgetMemory)

	taskGroup := e.Group("/api/v1/tasks", requireUserIDHeader)
	taskGroup.POST("", s.TaskService.CreateTask)
	taskGroup.GET("", s.TaskService.ListTasks)
	taskGroup.GET("/:id", s.TaskService.GetTask)
	taskGroup.PUT("/:id", s.TaskService.UpdateTask)
	taskGroup.DELETE("/:id", s.TaskService.DeleteTask)
	taskGroup.PATCH("/:id/complete", s.TaskService.ToggleTaskComplete)
}

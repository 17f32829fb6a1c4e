package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/elevatehq/elevate/store"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
	defaultTaskCategory  = "Personal"
)

// TaskService serves direct task CRUD, authenticated by the X-User-ID
// header. The same tasks are reachable through the agent's tools.
type TaskService struct {
	Store *store.Store
}

type taskCreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
}

type taskUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	IsCompleted *bool      `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *TaskService) CreateTask(c echo.Context) error {
	userID := currentUserID(c)

	var request taskCreateRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed task")
	}
	if strings.TrimSpace(request.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Task title cannot be empty")
	}
	if len(request.Title) > maxTitleLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Task title too long, max 200 characters")
	}
	if len(request.Description) > maxDescriptionLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Task description too long, max 1000 characters")
	}
	category := request.Category
	if category == "" {
		category = defaultTaskCategory
	}

	now := time.Now().Unix()
	task := &store.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       request.Title,
		Description: request.Description,
		Category:    category,
		CreatedTs:   now,
		UpdatedTs:   now,
	}
	if request.DueDate != nil {
		ts := request.DueDate.Unix()
		task.DueDate = &ts
	}

	created, err := s.Store.CreateTask(c.Request().Context(), task)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create task")
	}
	return c.JSON(http.StatusOK, toTaskResponse(created))
}

func (s *TaskService) ListTasks(c echo.Context) error {
	userID := currentUserID(c)

	tasks, err := s.Store.ListTasks(c.Request().Context(), &store.FindTask{UserID: &userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks")
	}

	responses := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, toTaskResponse(task))
	}
	return c.JSON(http.StatusOK, responses)
}

func (s *TaskService) GetTask(c echo.Context) error {
	task, err := s.findOwnedTask(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

func (s *TaskService) UpdateTask(c echo.Context) error {
	task, err := s.findOwnedTask(c)
	if err != nil {
		return err
	}

	var request taskUpdateRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed task update")
	}
	if request.Title != nil {
		if strings.TrimSpace(*request.Title) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Task title cannot be empty")
		}
		if len(*request.Title) > maxTitleLength {
			return echo.NewHTTPError(http.StatusBadRequest, "Task title too long, max 200 characters")
		}
	}
	if request.Description != nil && len(*request.Description) > maxDescriptionLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Task description too long, max 1000 characters")
	}

	now := time.Now().Unix()
	update := &store.UpdateTask{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		IsCompleted: request.IsCompleted,
		UpdatedTs:   &now,
	}
	if request.DueDate != nil {
		ts := request.DueDate.Unix()
		update.DueDate = &ts
	}

	updated, err := s.Store.UpdateTask(c.Request().Context(), update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}
	return c.JSON(http.StatusOK, toTaskResponse(updated))
}

func (s *TaskService) DeleteTask(c echo.Context) error {
	task, err := s.findOwnedTask(c)
	if err != nil {
		return err
	}

	if err := s.Store.DeleteTask(c.Request().Context(), &store.DeleteTask{ID: task.ID, UserID: task.UserID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete task")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// ToggleTaskComplete flips completion status.
func (s *TaskService) ToggleTaskComplete(c echo.Context) error {
	task, err := s.findOwnedTask(c)
	if err != nil {
		return err
	}

	completed := !task.IsCompleted
	now := time.Now().Unix()
	updated, err := s.Store.UpdateTask(c.Request().Context(), &store.UpdateTask{
		ID:          task.ID,
		UserID:      task.UserID,
		IsCompleted: &completed,
		UpdatedTs:   &now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}
	return c.JSON(http.StatusOK, toTaskResponse(updated))
}

// findOwnedTask resolves the :id path param to a task owned by the
// authenticated user. Wrong owner reads as not found.
func (s *TaskService) findOwnedTask(c echo.Context) (*store.Task, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}

	task, err := s.Store.GetTask(c.Request().Context(), id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load task")
	}
	if task == nil || task.UserID != currentUserID(c) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return task, nil
}

func toTaskResponse(task *store.Task) taskResponse {
	response := taskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Category:    task.Category,
		IsCompleted: task.IsCompleted,
		CreatedAt:   time.Unix(task.CreatedTs, 0).UTC(),
		UpdatedAt:   time.Unix(task.UpdatedTs, 0).UTC(),
	}
	if task.DueDate != nil {
		due := time.Unix(*task.DueDate, 0).UTC()
		response.DueDate = &due
	}
	return response
}

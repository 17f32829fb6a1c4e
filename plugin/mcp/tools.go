package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/elevatehq/elevate/store"
)

// RegisterTaskTools registers the task-management tool set. Called once at
// startup; the registry is never mutated afterwards.
func RegisterTaskTools(registry *Registry) {
	registry.Register(Tool{
		Name:        "add_task",
		Description: "Adds a new task for a user.",
		InputSchema: map[string]any{
			"title": "AddTaskInput",
			"type":  "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"title":       "User Id",
					"description": "The ID of the user for whom to add the task.",
				},
				"title": map[string]any{
					"type":        "string",
					"title":       "Title",
					"description": "The title of the task.",
				},
				"description": map[string]any{
					"anyOf":       []any{map[string]any{"type": "string"}, map[string]any{"type": "null"}},
					"title":       "Description",
					"default":     nil,
					"description": "The description of the task.",
				},
				"category": map[string]any{
					"anyOf":       []any{map[string]any{"type": "string"}, map[string]any{"type": "null"}},
					"title":       "Category",
					"default":     "Personal",
					"description": "The category of the task (e.g., Personal, Work, Shopping).",
				},
				"due_date": map[string]any{
					"anyOf":       []any{map[string]any{"type": "string", "format": "date-time"}, map[string]any{"type": "null"}},
					"title":       "Due Date",
					"default":     nil,
					"description": "The due date for the task.",
				},
			},
			"required": []any{"user_id", "title"},
		},
	}, addTask)

	registry.Register(Tool{
		Name:        "list_tasks",
		Description: "Lists all tasks for a user.",
		InputSchema: map[string]any{
			"title": "ListTasksInput",
			"type":  "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"title":       "User Id",
					"description": "The ID of the user for whom to list tasks.",
				},
			},
			"required": []any{"user_id"},
		},
	}, listTasks)

	registry.Register(Tool{
		Name:        "complete_task",
		Description: "Marks a user's task as complete.",
		InputSchema: map[string]any{
			"title": "CompleteTaskInput",
			"type":  "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"title":       "User Id",
					"description": "The ID of the user who owns the task.",
				},
				"task_id": map[string]any{
					"type":        "string",
					"format":      "uuid",
					"title":       "Task Id",
					"description": "The ID of the task to complete.",
				},
			},
			"required": []any{"user_id", "task_id"},
		},
	}, completeTask)

	registry.Register(Tool{
		Name:        "delete_task",
		Description: "Deletes a user's task.",
		InputSchema: map[string]any{
			"title": "DeleteTaskInput",
			"type":  "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"title":       "User Id",
					"description": "The ID of the user who owns the task.",
				},
				"task_id": map[string]any{
					"type":        "string",
					"format":      "uuid",
					"title":       "Task Id",
					"description": "The ID of the task to delete.",
				},
			},
			"required": []any{"user_id", "task_id"},
		},
	}, deleteTask)

	registry.Register(Tool{
		Name:        "update_task",
		Description: "Updates a user's task.",
		InputSchema: map[string]any{
			"title": "UpdateTaskInput",
			"type":  "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"title":       "User Id",
					"description": "The ID of the user who owns the task.",
				},
				"task_id": map[string]any{
					"type":        "string",
					"format":      "uuid",
					"title":       "Task Id",
					"description": "The ID of the task to update.",
				},
				"title": map[string]any{
					"anyOf":       []any{map[string]any{"type": "string"}, map[string]any{"type": "null"}},
					"title":       "Title",
					"default":     nil,
					"description": "The new title for the task.",
				},
				"description": map[string]any{
					"anyOf":       []any{map[string]any{"type": "string"}, map[string]any{"type": "null"}},
					"title":       "Description",
					"default":     nil,
					"description": "The new description for the task.",
				},
				"is_completed": map[string]any{
					"anyOf":       []any{map[string]any{"type": "boolean"}, map[string]any{"type": "null"}},
					"title":       "Is Completed",
					"default":     nil,
					"description": "The new completion status for the task.",
				},
				"category": map[string]any{
					"anyOf":       []any{map[string]any{"type": "string"}, map[string]any{"type": "null"}},
					"title":       "Category",
					"default":     nil,
					"description": "The new category for the task.",
				},
				"due_date": map[string]any{
					"anyOf":       []any{map[string]any{"type": "string", "format": "date-time"}, map[string]any{"type": "null"}},
					"title":       "Due Date",
					"default":     nil,
					"description": "The new due date for the task.",
				},
			},
			"required": []any{"user_id", "task_id"},
		},
	}, updateTask)
}

func addTask(ctx context.Context, st *store.Store, args map[string]any) (string, error) {
	userID, err := stringArg(args, "user_id")
	if err != nil {
		return "", err
	}
	title, err := stringArg(args, "title")
	if err != nil {
		return "", err
	}
	description, _ := optionalStringArg(args, "description")
	category, ok := optionalStringArg(args, "category")
	if !ok || category == "" {
		category = "Personal"
	}
	dueDate, err := optionalTimeArg(args, "due_date")
	if err != nil {
		return "", err
	}

	now := time.Now().Unix()
	task, err := st.CreateTask(ctx, &store.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Category:    category,
		DueDate:     dueDate,
		CreatedTs:   now,
		UpdatedTs:   now,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task '%s' (ID: %s) for user %s added successfully.", task.Title, task.ID, task.UserID), nil
}

func listTasks(ctx context.Context, st *store.Store, args map[string]any) (string, error) {
	userID, err := stringArg(args, "user_id")
	if err != nil {
		return "", err
	}
	tasks, err := st.ListTasks(ctx, &store.FindTask{UserID: &userID})
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return fmt.Sprintf("No tasks found for user %s.", userID), nil
	}

	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		due := "None"
		if task.DueDate != nil {
			due = time.Unix(*task.DueDate, 0).UTC().Format("2006-01-02")
		}
		completed := "No"
		if task.IsCompleted {
			completed = "Yes"
		}
		lines = append(lines, fmt.Sprintf("ID: %s, Title: %s, Category: %s, Due: %s, Completed: %s",
			task.ID, task.Title, task.Category, due, completed))
	}
	return strings.Join(lines, "\n"), nil
}

func completeTask(ctx context.Context, st *store.Store, args map[string]any) (string, error) {
	userID, taskID, task, err := findOwnedTask(ctx, st, args)
	if err != nil {
		return "", err
	}
	if task == nil {
		return fmt.Sprintf("Task with ID %s not found for user %s.", taskID, userID), nil
	}

	completed := true
	now := time.Now().Unix()
	updated, err := st.UpdateTask(ctx, &store.UpdateTask{
		ID:          task.ID,
		UserID:      userID,
		IsCompleted: &completed,
		UpdatedTs:   &now,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task '%s' (ID: %s) for user %s marked as complete.", updated.Title, updated.ID, updated.UserID), nil
}

func deleteTask(ctx context.Context, st *store.Store, args map[string]any) (string, error) {
	userID, taskID, task, err := findOwnedTask(ctx, st, args)
	if err != nil {
		return "", err
	}
	if task == nil {
		return fmt.Sprintf("Task with ID %s not found for user %s.", taskID, userID), nil
	}

	if err := st.DeleteTask(ctx, &store.DeleteTask{ID: task.ID, UserID: userID}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Task '%s' (ID: %s) for user %s deleted.", task.Title, task.ID, task.UserID), nil
}

func updateTask(ctx context.Context, st *store.Store, args map[string]any) (string, error) {
	userID, taskID, task, err := findOwnedTask(ctx, st, args)
	if err != nil {
		return "", err
	}
	if task == nil {
		return fmt.Sprintf("Task with ID %s not found for user %s.", taskID, userID), nil
	}

	now := time.Now().Unix()
	update := &store.UpdateTask{ID: task.ID, UserID: userID, UpdatedTs: &now}
	if title, ok := optionalStringArg(args, "title"); ok {
		update.Title = &title
	}
	if description, ok := optionalStringArg(args, "description"); ok {
		update.Description = &description
	}
	if completed, ok := args["is_completed"].(bool); ok {
		update.IsCompleted = &completed
	}
	if category, ok := optionalStringArg(args, "category"); ok {
		update.Category = &category
	}
	if dueDate, err := optionalTimeArg(args, "due_date"); err != nil {
		return "", err
	} else if dueDate != nil {
		update.DueDate = dueDate
	}

	updated, err := st.UpdateTask(ctx, update)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task '%s' (ID: %s) for user %s updated successfully.", updated.Title, updated.ID, updated.UserID), nil
}

func findOwnedTask(ctx context.Context, st *store.Store, args map[string]any) (userID, taskID string, task *store.Task, err error) {
	userID, err = stringArg(args, "user_id")
	if err != nil {
		return "", "", nil, err
	}
	taskID, err = stringArg(args, "task_id")
	if err != nil {
		return "", "", nil, err
	}
	if _, parseErr := uuid.Parse(taskID); parseErr != nil {
		return "", "", nil, errors.Wrapf(parseErr, "invalid task_id %q", taskID)
	}

	task, err = st.GetTask(ctx, taskID)
	if err != nil {
		return "", "", nil, err
	}
	if task != nil && task.UserID != userID {
		// Wrong owner reads as not found, matching the task API.
		task = nil
	}
	return userID, taskID, task, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return "", errors.Errorf("missing required argument %q", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", errors.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key]
	if !ok || value == nil {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// optionalTimeArg accepts RFC 3339 timestamps or plain dates.
func optionalTimeArg(args map[string]any, key string) (*int64, error) {
	raw, ok := optionalStringArg(args, key)
	if !ok || raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			ts := t.Unix()
			return &ts, nil
		}
	}
	return nil, errors.Errorf("argument %q must be an RFC 3339 timestamp or YYYY-MM-DD date", key)
}

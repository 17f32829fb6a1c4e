package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/elevatehq/elevate/internal/profile"
	"github.com/elevatehq/elevate/store"
	"github.com/elevatehq/elevate/store/db/sqlite"
)

func newToolTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "prod",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "elevate_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func invokeTool(t *testing.T, registry *Registry, st *store.Store, name string, args map[string]any) string {
	t.Helper()
	result := registry.Invoke(context.Background(), name, args, st)
	require.Len(t, result.Content, 1)
	return result.Content[0].Text
}

func addTaskFor(t *testing.T, registry *Registry, st *store.Store, userID, title string) string {
	t.Helper()
	output := invokeTool(t, registry, st, "add_task", map[string]any{
		"user_id": userID,
		"title":   title,
	})
	require.Contains(t, output, "added successfully")
	// "Task '<title>' (ID: <uuid>) for user <id> added successfully."
	start := strings.Index(output, "(ID: ")
	require.GreaterOrEqual(t, start, 0)
	end := strings.Index(output[start:], ")")
	id := output[start+len("(ID: ") : start+end]
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	return id
}

func TestRegisterTaskToolsManifest(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)

	listed := registry.List()
	require.Len(t, listed, 5)
	names := make([]string, 0, len(listed))
	for _, tool := range listed {
		names = append(names, tool.Name)
	}
	require.Equal(t, []string{"add_task", "list_tasks", "complete_task", "delete_task", "update_task"}, names)

	// Schemas are deliberately verbose; the agent sanitizes them.
	require.Contains(t, listed[0].InputSchema, "title")
	require.Contains(t, listed[0].InputSchema, "properties")
}

func TestAddAndListTasks(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	output := invokeTool(t, registry, st, "list_tasks", map[string]any{"user_id": "alice"})
	require.Equal(t, "No tasks found for user alice.", output)

	output = invokeTool(t, registry, st, "add_task", map[string]any{
		"user_id":  "alice",
		"title":    "Buy milk",
		"due_date": "2026-09-01",
	})
	require.Contains(t, output, "Task 'Buy milk' (ID: ")
	require.Contains(t, output, "for user alice added successfully.")

	output = invokeTool(t, registry, st, "list_tasks", map[string]any{"user_id": "alice"})
	require.Contains(t, output, "Title: Buy milk")
	require.Contains(t, output, "Category: Personal")
	require.Contains(t, output, "Due: 2026-09-01")
	require.Contains(t, output, "Completed: No")

	// Tasks stay scoped to their owner.
	output = invokeTool(t, registry, st, "list_tasks", map[string]any{"user_id": "bob"})
	require.Equal(t, "No tasks found for user bob.", output)
}

func TestAddTaskRFC3339DueDate(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	due := time.Date(2026, 9, 15, 12, 30, 0, 0, time.UTC).Format(time.RFC3339)
	invokeTool(t, registry, st, "add_task", map[string]any{
		"user_id":  "alice",
		"title":    "Meeting prep",
		"due_date": due,
	})

	output := invokeTool(t, registry, st, "list_tasks", map[string]any{"user_id": "alice"})
	require.Contains(t, output, "Due: 2026-09-15")
}

func TestAddTaskMissingArguments(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	output := invokeTool(t, registry, st, "add_task", map[string]any{"user_id": "alice"})
	require.Contains(t, output, "Error calling tool 'add_task'")
	require.Contains(t, output, `missing required argument "title"`)
}

func TestCompleteTask(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	id := addTaskFor(t, registry, st, "alice", "Buy milk")

	output := invokeTool(t, registry, st, "complete_task", map[string]any{
		"user_id": "alice",
		"task_id": id,
	})
	require.Equal(t, fmt.Sprintf("Task 'Buy milk' (ID: %s) for user alice marked as complete.", id), output)

	output = invokeTool(t, registry, st, "list_tasks", map[string]any{"user_id": "alice"})
	require.Contains(t, output, "Completed: Yes")
}

func TestCompleteTaskWrongOwnerReadsAsNotFound(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	id := addTaskFor(t, registry, st, "alice", "Buy milk")

	output := invokeTool(t, registry, st, "complete_task", map[string]any{
		"user_id": "bob",
		"task_id": id,
	})
	require.Equal(t, fmt.Sprintf("Task with ID %s not found for user bob.", id), output)
}

func TestCompleteTaskUnknownID(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	id := uuid.NewString()
	output := invokeTool(t, registry, st, "complete_task", map[string]any{
		"user_id": "alice",
		"task_id": id,
	})
	require.Equal(t, fmt.Sprintf("Task with ID %s not found for user alice.", id), output)
}

func TestCompleteTaskInvalidID(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	output := invokeTool(t, registry, st, "complete_task", map[string]any{
		"user_id": "alice",
		"task_id": "not-a-uuid",
	})
	require.Contains(t, output, "Error calling tool 'complete_task'")
	require.Contains(t, output, "invalid task_id")
}

func TestDeleteTask(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	id := addTaskFor(t, registry, st, "alice", "Buy milk")

	output := invokeTool(t, registry, st, "delete_task", map[string]any{
		"user_id": "alice",
		"task_id": id,
	})
	require.Equal(t, fmt.Sprintf("Task 'Buy milk' (ID: %s) for user alice deleted.", id), output)

	output = invokeTool(t, registry, st, "list_tasks", map[string]any{"user_id": "alice"})
	require.Equal(t, "No tasks found for user alice.", output)
}

func TestUpdateTask(t *testing.T) {
	registry := NewRegistry()
	RegisterTaskTools(registry)
	st := newToolTestStore(t)

	id := addTaskFor(t, registry, st, "alice", "Buy milk")

	output := invokeTool(t, registry, st, "update_task", map[string]any{
		"user_id":      "alice",
		"task_id":      id,
		"title":        "Buy oat milk",
		"category":     "Shopping",
		"is_completed": true,
	})
	require.Equal(t, fmt.Sprintf("Task 'Buy oat milk' (ID: %s) for user alice updated successfully.", id), output)

	listing := invokeTool(t, registry, st, "list_tasks", map[string]any{"user_id": "alice"})
	require.Contains(t, listing, "Title: Buy oat milk")
	require.Contains(t, listing, "Category: Shopping")
	require.Contains(t, listing, "Completed: Yes")
}

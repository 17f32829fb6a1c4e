package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/elevatehq/elevate/internal/profile"
	"github.com/elevatehq/elevate/store"
	"github.com/elevatehq/elevate/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
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

func TestGetOrCreateConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first, err := st.GetOrCreateConversation(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", first.UserID)
	require.NotZero(t, first.ID)

	// First-seen-wins: the same conversation comes back on every later call.
	second, err := st.GetOrCreateConversation(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	other, err := st.GetOrCreateConversation(ctx, "bob")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}

func TestGetConversationByUserIDAbsent(t *testing.T) {
	st := newTestStore(t)
	conversation, err := st.GetConversationByUserID(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, conversation)
}

func TestMessageLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	conversation, err := st.GetOrCreateConversation(ctx, "alice")
	require.NoError(t, err)

	contents := []string{"first", "second", "third"}
	for i, content := range contents {
		_, err := st.CreateMessage(ctx, &store.Message{
			ConversationID: conversation.ID,
			Sender:         store.SenderUser,
			Content:        content,
			Kind:           store.MessageKindStandard,
			// Same timestamp: ordering must fall back to insertion id.
			CreatedTs: 1700000000,
		})
		require.NoError(t, err, "message %d", i)
	}

	messages, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, content := range contents {
		require.Equal(t, content, messages[i].Content)
	}

	desc, err := st.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversation.ID,
		OrderDesc:      true,
	})
	require.NoError(t, err)
	require.Equal(t, "third", desc[0].Content)
	require.Equal(t, "first", desc[2].Content)

	require.NoError(t, st.DeleteMessage(ctx, &store.DeleteMessage{ID: messages[0].ID}))
	messages, err = st.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 2)
}

func TestCreateMessageDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	conversation, err := st.GetOrCreateConversation(ctx, "alice")
	require.NoError(t, err)

	message, err := st.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Sender:         store.SenderUser,
		Content:        "hello",
		Kind:           store.MessageKindStandard,
	})
	require.NoError(t, err)
	require.NotZero(t, message.CreatedTs)

	stored, err := st.GetMessage(ctx, message.ID)
	require.NoError(t, err)
	require.Equal(t, message.CreatedTs, stored.CreatedTs)
}

func TestListMessagesByKind(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	conversation, err := st.GetOrCreateConversation(ctx, "alice")
	require.NoError(t, err)

	kinds := []store.MessageKind{
		store.MessageKindStandard,
		store.MessageKindMemory,
		store.MessageKindReminder,
		store.MessageKindResponse,
	}
	for _, kind := range kinds {
		_, err := st.CreateMessage(ctx, &store.Message{
			ConversationID: conversation.ID,
			Sender:         store.SenderSystem,
			Content:        string(kind),
			Kind:           kind,
		})
		require.NoError(t, err)
	}

	memories, err := st.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversation.ID,
		Kinds:          []store.MessageKind{store.MessageKindMemory, store.MessageKindReminder},
	})
	require.NoError(t, err)
	require.Len(t, memories, 2)
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created, err := st.CreateTask(ctx, &store.Task{
		ID:       uuid.NewString(),
		UserID:   "alice",
		Title:    "Buy milk",
		Category: "Personal",
	})
	require.NoError(t, err)
	require.False(t, created.IsCompleted)

	fetched, err := st.GetTask(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Buy milk", fetched.Title)

	newTitle := "Buy oat milk"
	completed := true
	updated, err := st.UpdateTask(ctx, &store.UpdateTask{
		ID:          created.ID,
		UserID:      "alice",
		Title:       &newTitle,
		IsCompleted: &completed,
	})
	require.NoError(t, err)
	require.Equal(t, "Buy oat milk", updated.Title)
	require.True(t, updated.IsCompleted)

	tasks, err := st.ListTasks(ctx, &store.FindTask{UserID: &created.UserID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, st.DeleteTask(ctx, &store.DeleteTask{ID: created.ID, UserID: "alice"}))
	tasks, err = st.ListTasks(ctx, &store.FindTask{UserID: &created.UserID})
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestTaskScopedToOwner(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created, err := st.CreateTask(ctx, &store.Task{
		ID:     uuid.NewString(),
		UserID: "alice",
		Title:  "Private task",
	})
	require.NoError(t, err)

	bob := "bob"
	tasks, err := st.ListTasks(ctx, &store.FindTask{UserID: &bob})
	require.NoError(t, err)
	require.Empty(t, tasks)

	// Updates keyed by another user's id must not touch the row.
	title := "hijacked"
	after, err := st.UpdateTask(ctx, &store.UpdateTask{ID: created.ID, UserID: "bob", Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Private task", after.Title)

	// Same for deletes.
	require.NoError(t, st.DeleteTask(ctx, &store.DeleteTask{ID: created.ID, UserID: "bob"}))
	kept, err := st.GetTask(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
}

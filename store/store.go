package store

import (
	"context"
	"time"

	"github.com/elevatehq/elevate/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversationByUserID returns the user's conversation, or nil when the
// user has never chatted.
func (s *Store) GetConversationByUserID(ctx context.Context, userID string) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, &FindConversation{UserID: &userID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// GetOrCreateConversation returns the user's conversation, creating it on
// first contact. First-seen-wins: at most one conversation exists per user.
func (s *Store) GetOrCreateConversation(ctx context.Context, userID string) (*Conversation, error) {
	conversation, err := s.GetConversationByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conversation != nil {
		return conversation, nil
	}
	return s.driver.CreateConversation(ctx, &Conversation{
		UserID:    userID,
		CreatedTs: time.Now().Unix(),
	})
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) GetMessage(ctx context.Context, id int64) (*Message, error) {
	return s.driver.GetMessage(ctx, id)
}

func (s *Store) DeleteMessage(ctx context.Context, delete *DeleteMessage) error {
	return s.driver.DeleteMessage(ctx, delete)
}

func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	return s.driver.CreateTask(ctx, create)
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	return s.driver.ListTasks(ctx, find)
}

func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	return s.driver.GetTask(ctx, id)
}

func (s *Store) UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error) {
	return s.driver.UpdateTask(ctx, update)
}

func (s *Store) DeleteTask(ctx context.Context, delete *DeleteTask) error {
	return s.driver.DeleteTask(ctx, delete)
}

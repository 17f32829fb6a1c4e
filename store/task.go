package store

// Task is a user's to-do item.
type Task struct {
	ID          string // uuid
	UserID      string
	Title       string
	Description string
	Category    string
	DueDate     *int64 // unix seconds, nil when no due date
	CreatedTs   int64
	UpdatedTs   int64
	IsCompleted bool
}

// FindTask specifies the conditions for finding tasks.
type FindTask struct {
	ID     *string
	UserID *string
}

// UpdateTask specifies the fields to update. Nil fields are left unchanged.
type UpdateTask struct {
	Title       *string
	Description *string
	IsCompleted *bool
	Category    *string
	DueDate     *int64
	UpdatedTs   *int64
	ID          string
	UserID      string
}

// DeleteTask specifies the task to delete, scoped to its owner.
type DeleteTask struct {
	ID     string
	UserID string
}

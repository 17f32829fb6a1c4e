package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/elevatehq/elevate/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	stmt := `
		INSERT INTO task (id, user_id, title, description, is_completed, category, due_date, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.UserID,
		create.Title,
		create.Description,
		create.IsCompleted,
		create.Category,
		create.DueDate,
		create.CreatedTs,
		create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create task")
	}
	task := *create
	return &task, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `SELECT id, user_id, title, description, is_completed, category, due_date, created_ts, updated_ts
		FROM task WHERE ` + joinWhere(where) + ` ORDER BY created_ts, id`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	defer rows.Close()

	var list []*store.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) GetTask(ctx context.Context, id string) (*store.Task, error) {
	query := `SELECT id, user_id, title, description, is_completed, category, due_date, created_ts, updated_ts
		FROM task WHERE id = ?`
	rows, err := d.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get task")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return scanTask(rows)
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	set, args := []string{}, []any{}
	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.IsCompleted != nil {
		set, args = append(set, "is_completed = ?"), append(args, *update.IsCompleted)
	}
	if update.Category != nil {
		set, args = append(set, "category = ?"), append(args, *update.Category)
	}
	if update.DueDate != nil {
		set, args = append(set, "due_date = ?"), append(args, *update.DueDate)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return d.GetTask(ctx, update.ID)
	}

	args = append(args, update.ID, update.UserID)
	stmt := `UPDATE task SET ` + strings.Join(set, ", ") + ` WHERE id = ? AND user_id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update task")
	}
	return d.GetTask(ctx, update.ID)
}

func (d *DB) DeleteTask(ctx context.Context, delete *store.DeleteTask) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM task WHERE id = ? AND user_id = ?`, delete.ID, delete.UserID); err != nil {
		return errors.Wrap(err, "failed to delete task")
	}
	return nil
}

func scanTask(rows *sql.Rows) (*store.Task, error) {
	var task store.Task
	var dueDate sql.NullInt64
	if err := rows.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.IsCompleted,
		&task.Category,
		&dueDate,
		&task.CreatedTs,
		&task.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan task")
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Int64
	}
	return &task, nil
}

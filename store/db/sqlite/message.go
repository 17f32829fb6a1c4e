package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/elevatehq/elevate/store"
)

func joinWhere(where []string) string {
	return strings.Join(where, " AND ")
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	stmt := `
		INSERT INTO message (conversation_id, sender, content, created_ts, kind, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	var tags any
	if create.Tags != "" {
		tags = create.Tags
	}
	message := *create
	err := d.db.QueryRowContext(ctx, stmt,
		create.ConversationID,
		create.Sender,
		create.Content,
		create.CreatedTs,
		create.Kind,
		tags,
	).Scan(&message.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}
	return &message, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *find.ConversationID)
	}
	if len(find.Kinds) > 0 {
		placeholders := make([]string, len(find.Kinds))
		for i, kind := range find.Kinds {
			placeholders[i] = "?"
			args = append(args, kind)
		}
		where = append(where, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}

	// Ordering is by timestamp, ties broken by insertion order.
	order := "ORDER BY created_ts, id"
	if find.OrderDesc {
		order = "ORDER BY created_ts DESC, id DESC"
	}

	query := `SELECT id, conversation_id, sender, content, created_ts, kind, tags FROM message WHERE ` + joinWhere(where) + " " + order
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	defer rows.Close()

	var list []*store.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `SELECT id, conversation_id, sender, content, created_ts, kind, tags FROM message WHERE id = ?`
	rows, err := d.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get message")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return scanMessage(rows)
}

func (d *DB) DeleteMessage(ctx context.Context, delete *store.DeleteMessage) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM message WHERE id = ?`, delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete message")
	}
	return nil
}

func scanMessage(rows *sql.Rows) (*store.Message, error) {
	var message store.Message
	var tags sql.NullString
	if err := rows.Scan(
		&message.ID,
		&message.ConversationID,
		&message.Sender,
		&message.Content,
		&message.CreatedTs,
		&message.Kind,
		&tags,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan message")
	}
	if tags.Valid {
		message.Tags = tags.String
	}
	return &message, nil
}

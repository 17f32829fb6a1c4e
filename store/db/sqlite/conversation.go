package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/elevatehq/elevate/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	stmt := `
		INSERT INTO conversation (user_id, created_ts, metadata)
		VALUES (?, ?, ?)
		RETURNING id, user_id, created_ts, metadata
	`
	var conversation store.Conversation
	var metadata sql.NullString
	err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.CreatedTs,
		create.Metadata,
	).Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.CreatedTs,
		&metadata,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}
	if metadata.Valid {
		conversation.Metadata = &metadata.String
	}
	return &conversation, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `SELECT id, user_id, created_ts, metadata FROM conversation WHERE ` + joinWhere(where) + ` ORDER BY created_ts, id`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	var list []*store.Conversation
	for rows.Next() {
		var conversation store.Conversation
		var metadata sql.NullString
		if err := rows.Scan(
			&conversation.ID,
			&conversation.UserID,
			&conversation.CreatedTs,
			&metadata,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation")
		}
		if metadata.Valid {
			conversation.Metadata = &metadata.String
		}
		list = append(list, &conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

var migrationStmts = []string{
	`CREATE TABLE IF NOT EXISTS conversation (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		created_ts BIGINT NOT NULL,
		metadata TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversation_user_id ON conversation (user_id)`,
	`CREATE TABLE IF NOT EXISTS message (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		created_ts BIGINT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'standard',
		tags TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id)`,
	`CREATE TABLE IF NOT EXISTS task (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_completed INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT 'Personal',
		due_date BIGINT,
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_user_id ON task (user_id)`,
}

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every startup.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply migration")
		}
	}
	return nil
}

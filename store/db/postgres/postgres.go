package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/elevatehq/elevate/internal/profile"
	"github.com/elevatehq/elevate/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database using the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	postgresDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: postgresDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrationStmts = []string{
	`CREATE TABLE IF NOT EXISTS conversation (
		id SERIAL PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		created_ts BIGINT NOT NULL,
		metadata TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS message (
		id BIGSERIAL PRIMARY KEY,
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
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
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

// ABOUTME: Opens the sqlite database and creates the schema - chat sessions,
// ABOUTME: ordered messages, and MCP server configurations.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id          TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
	role                TEXT NOT NULL,
	text                TEXT NOT NULL,
	suggested_questions TEXT,
	images              TEXT,
	order_index         INTEGER NOT NULL,
	created_at          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, order_index);

CREATE TABLE IF NOT EXISTS mcp_servers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	transport  TEXT NOT NULL,
	command    TEXT,
	args       TEXT,
	env        TEXT,
	url        TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	// The pragma rides on the DSN so every pooled connection enforces
	// cascade deletes.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Package history stores fill runs in SQLite, with optional FTS5 search
// over the answers they wrote.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	doc_id     TEXT NOT NULL,
	mode       TEXT NOT NULL DEFAULT '',
	dry_run    INTEGER NOT NULL DEFAULT 0,
	has_errors INTEGER NOT NULL DEFAULT 0,
	counts     TEXT NOT NULL DEFAULT '{}',
	checksum   TEXT NOT NULL DEFAULT '',
	bundle     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS answers (
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	outline_id TEXT NOT NULL,
	status     TEXT NOT NULL,
	question   TEXT NOT NULL DEFAULT '',
	answer     TEXT NOT NULL DEFAULT '',
	UNIQUE(run_id, outline_id, status)
);

CREATE INDEX IF NOT EXISTS idx_runs_doc ON runs(doc_id, created_at);
CREATE INDEX IF NOT EXISTS idx_answers_run ON answers(run_id);
`

// DB wraps a sql.DB with run history operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

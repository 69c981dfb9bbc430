// Package store persists rules, exceptions and templates in sqlite. It is
// the only layer that touches the database; the schedule engine consumes its
// rows as immutable snapshots.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver, registered via side effect

	appLog "allycal/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS rules (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	start_date      TEXT NOT NULL,
	start_time      TEXT NOT NULL DEFAULT '',
	end_time        TEXT NOT NULL DEFAULT '',
	frequency       TEXT NOT NULL,
	days_of_week    TEXT NOT NULL DEFAULT '',
	visibility      TEXT NOT NULL,
	alliance_id     TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS exceptions (
	rule_id         TEXT NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
	occurrence_date TEXT NOT NULL,
	action          TEXT NOT NULL,
	new_date        TEXT,
	new_start_time  TEXT,
	new_end_time    TEXT,
	new_title       TEXT,
	new_description TEXT,
	updated_at      TIMESTAMP NOT NULL,
	PRIMARY KEY (rule_id, occurrence_date)
);

CREATE TABLE IF NOT EXISTS templates (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	start_time   TEXT NOT NULL DEFAULT '',
	end_time     TEXT NOT NULL DEFAULT '',
	frequency    TEXT NOT NULL,
	days_of_week TEXT NOT NULL DEFAULT '',
	visibility   TEXT NOT NULL,
	alliance_id  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS template_runs (
	template_id TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
	run_date    TEXT NOT NULL,
	rule_id     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (template_id, run_date)
);
`

// DB wraps the sqlite connection pool shared by the stores.
type DB struct {
	conn *sqlx.DB
}

// Open opens (creating if necessary) the sqlite database at path and ensures
// the schema exists. Foreign keys are enabled so deleting a rule cascades to
// its exceptions. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("store: database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("store: create database dir: %w", err)
		}
	}

	conn, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pool connection gets its own in-memory database; pin the
		// pool to one connection so the schema is visible everywhere.
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	appLog.Info("store: database ready", "path", path)
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// encodeDays renders a weekday set as "1,3,5"; decodeDays reverses it.
func encodeDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("store: bad days_of_week %q: %w", s, err)
		}
		out = append(out, n)
	}
	return out, nil
}

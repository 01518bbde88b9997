// Package store is the sqlite metadata store the migration reads
// documents from and writes results back to. Every migration run works
// inside one transaction, so a dry run leaves no trace.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS works (
	id INTEGER PRIMARY KEY,
	frbr_uri TEXT NOT NULL UNIQUE,
	country TEXT NOT NULL,
	locality TEXT NOT NULL DEFAULT '',
	doctype TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY,
	work_id INTEGER NOT NULL REFERENCES works(id),
	language TEXT NOT NULL DEFAULT '',
	expression_date TEXT NOT NULL DEFAULT '',
	document_xml TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS documents_work ON documents(work_id);

CREATE TABLE IF NOT EXISTS document_versions (
	id INTEGER PRIMARY KEY,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	revision_date TEXT NOT NULL,
	user_id INTEGER,
	comment TEXT NOT NULL DEFAULT '',
	serialized_data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS document_versions_document ON document_versions(document_id);

CREATE TABLE IF NOT EXISTS annotations (
	id INTEGER PRIMARY KEY,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	anchor_id TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS annotations_document ON annotations(document_id);

CREATE TABLE IF NOT EXISTS commencements (
	id INTEGER PRIMARY KEY,
	work_id INTEGER NOT NULL REFERENCES works(id),
	all_provisions INTEGER NOT NULL DEFAULT 0,
	provisions TEXT NOT NULL DEFAULT '[]'
);
`

func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts the outer transaction of a run.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

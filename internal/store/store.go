package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite persistence layer for an analyzed source tree.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Reset deletes every analysis row. Metadata is kept.
func (s *Store) Reset() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("reset: begin: %w", err)
	}
	defer tx.Rollback()
	if err := clearTables(tx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return tx.Commit()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// analysisTables in child-first order, so deletes respect foreign keys.
var analysisTables = []string{"implementers", "implementations", "bases", "warnings", "symbols", "files"}

func clearTables(db execer) error {
	for _, table := range analysisTables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  module          TEXT NOT NULL,
  is_package      BOOLEAN DEFAULT FALSE,
  hash            TEXT,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  full_name       TEXT NOT NULL UNIQUE,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  parent          TEXT,
  file_id         INTEGER REFERENCES files(id),
  line            INTEGER,
  docstring       TEXT,
  is_interface    BOOLEAN DEFAULT FALSE,
  implements_only BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS bases (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES symbols(id),
  position        INTEGER NOT NULL,
  base_name       TEXT NOT NULL,
  base_id         INTEGER REFERENCES symbols(id)
);

CREATE TABLE IF NOT EXISTS implementations (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES symbols(id),
  interface       TEXT NOT NULL,
  kind            TEXT NOT NULL CHECK (kind IN ('direct', 'indirect')),
  position        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS implementers (
  id              INTEGER PRIMARY KEY,
  interface_id    INTEGER NOT NULL REFERENCES symbols(id),
  class_name      TEXT NOT NULL,
  kind            TEXT NOT NULL CHECK (kind IN ('direct', 'indirect')),
  position        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS warnings (
  id              INTEGER PRIMARY KEY,
  message         TEXT NOT NULL,
  detail          TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_bases_class ON bases(class_id);
CREATE INDEX IF NOT EXISTS idx_bases_name ON bases(base_name);
CREATE INDEX IF NOT EXISTS idx_implementations_class ON implementations(class_id);
CREATE INDEX IF NOT EXISTS idx_implementations_interface ON implementations(interface);
CREATE INDEX IF NOT EXISTS idx_implementers_interface ON implementers(interface_id);
`

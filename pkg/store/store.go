package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the SQLite connection and schema for persons, hobbies and
// friendships.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// Friendships are stored once per direction; linking inserts both rows
	// inside one transaction. The graph endpoint therefore emits each
	// friendship twice, which consumers are expected to deduplicate.
	query := `
	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		age INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hobbies (
		person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		hobby TEXT NOT NULL,
		PRIMARY KEY (person_id, hobby)
	);

	CREATE TABLE IF NOT EXISTS friendships (
		person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		friend_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		PRIMARY KEY (person_id, friend_id)
	);

	CREATE INDEX IF NOT EXISTS idx_friendships_person ON friendships(person_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

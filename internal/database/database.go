package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an insert was ignored because the
	// row is already present.
	ErrAlreadyExists = errors.New("already exists")
)

// DB wraps sqlx.DB. It is the single owner of all persisted state; callers
// hold rows by value only for the duration of one operation.
type DB struct {
	*sqlx.DB
}

// New opens (creating if needed) the sqlite database at path with WAL
// journaling, foreign keys, and a busy timeout.
func New(path string) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer at a time; readers are isolated by WAL.
	db.SetMaxOpenConns(1)

	return &DB{db}, nil
}

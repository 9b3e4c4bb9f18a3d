// Package store provides the SQLite-backed durable client state.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DB holds named string slots.
type DB struct {
	db *sql.DB
}

// DefaultPath returns $XDG_STATE_HOME/spendline/state.db (~/.local/state fallback).
func DefaultPath() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "spendline", "state.db")
}

// Open opens or creates the state database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the state database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Get returns the value stored under name, or "" when the slot is empty.
func (d *DB) Get(name string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM slots WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading slot %s: %w", name, err)
	}
	return value, nil
}

// Put stores value under name, replacing any previous value.
func (d *DB) Put(name, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := d.db.Exec(`INSERT OR REPLACE INTO slots (name, value, updated_at) VALUES (?, ?, ?)`,
		name, value, now)
	if err != nil {
		return fmt.Errorf("writing slot %s: %w", name, err)
	}
	return nil
}

// Delete empties the slot. Deleting an empty slot is not an error.
func (d *DB) Delete(name string) error {
	if _, err := d.db.Exec("DELETE FROM slots WHERE name = ?", name); err != nil {
		return fmt.Errorf("clearing slot %s: %w", name, err)
	}
	return nil
}

// Slot binds a single named slot, satisfying token.Slot.
func (d *DB) Slot(name string) *Slot {
	return &Slot{db: d, name: name}
}

// Slot is one named durable value.
type Slot struct {
	db   *DB
	name string
}

// Load returns the stored value.
func (s *Slot) Load() (string, error) { return s.db.Get(s.name) }

// Save replaces the stored value.
func (s *Slot) Save(v string) error { return s.db.Put(s.name, v) }

// Clear empties the slot.
func (s *Slot) Clear() error { return s.db.Delete(s.name) }
